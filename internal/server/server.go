// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jeranaias/chatpanel/internal/commands"
	"github.com/jeranaias/chatpanel/internal/export"
	"github.com/jeranaias/chatpanel/internal/model"
	"github.com/jeranaias/chatpanel/internal/panel"
	"github.com/jeranaias/chatpanel/internal/ui/styles"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8787"

	// Version is the server version reported by /health.
	Version = "0.1.0"

	// healthCheckTimeout bounds the chat service probe in /health.
	healthCheckTimeout = 2 * time.Second
)

// HealthChecker probes the chat service. *ollama.Client satisfies it.
type HealthChecker interface {
	CheckRunning(ctx context.Context) error
	BaseURL() string
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	// Addr is the listen address; DefaultAddr when empty
	Addr string

	// RateLimitPerMinute is the per-client budget; zero disables limiting
	RateLimitPerMinute int

	// Theme selects the panel palette ("dark" or "light")
	Theme string

	Logger *zap.Logger
}

// Server is the HTTP host for commands and panels.
type Server struct {
	addr     string
	registry *commands.Registry
	panels   *panel.Manager
	health   HealthChecker
	theme    *styles.Theme
	logger   *zap.Logger
	limiter  *RateLimiter
	upgrader websocket.Upgrader
	started  time.Time

	router chi.Router
	server *http.Server
}

// New creates a Server. health may be nil, in which case /health does not
// probe the chat service.
func New(registry *commands.Registry, panels *panel.Manager, health HealthChecker, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		addr:     opts.Addr,
		registry: registry,
		panels:   panels,
		health:   health,
		theme:    styles.NewTheme(opts.Theme),
		logger:   opts.Logger.Named("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		started: time.Now(),
	}
	if opts.RateLimitPerMinute > 0 {
		s.limiter = NewRateLimiter(opts.RateLimitPerMinute)
	}

	s.setupRoutes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	)
	if s.limiter != nil {
		r.Use(RateLimitMiddleware(s.limiter, s.logger))
	}

	r.Get("/health", s.handleHealth)

	r.Get("/commands", s.handleListCommands)
	r.Post("/commands/{id}", s.handleExecuteCommand)

	r.Route("/panels", func(r chi.Router) {
		r.Get("/", s.handleListPanels)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.panelCtx)
			r.Get("/", s.handlePanelDocument)
			r.Get("/ws", s.handlePanelSocket)
			r.Get("/transcript", s.handlePanelTranscript)
			r.Delete("/", s.handleClosePanel)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router = r
}

// ============================================================================
// HEALTH
// ============================================================================

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Uptime  string        `json:"uptime"`
	Panels  int           `json:"panels"`
	Service ServiceHealth `json:"service"`
}

// ServiceHealth describes chat service reachability.
type ServiceHealth struct {
	URL       string `json:"url,omitempty"`
	Reachable bool   `json:"reachable"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Panels:  s.panels.Len(),
	}

	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp.Service.URL = s.health.BaseURL()
		if err := s.health.CheckRunning(ctx); err != nil {
			s.logger.Debug("chat service unreachable", zap.Error(err))
			resp.Status = "degraded"
		} else {
			resp.Service.Reachable = true
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// COMMANDS
// ============================================================================

// CommandInfo describes a registered command.
type CommandInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
}

// OpenedPanel is the result of a command that opened a panel.
type OpenedPanel struct {
	PanelID string `json:"panel_id"`
	URL     string `json:"url"`
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	all := s.registry.All()
	infos := make([]CommandInfo, 0, len(all))
	for _, cmd := range all {
		infos = append(infos, CommandInfo{ID: cmd.ID, Title: cmd.Title, Category: cmd.Category})
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": infos})
}

func (s *Server) handleExecuteCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := s.registry.Execute(r.Context(), id)
	switch {
	case errors.Is(err, commands.ErrUnknownCommand):
		writeError(w, http.StatusNotFound, "unknown command: "+id)
		return
	case errors.Is(err, panel.ErrManagerClosed):
		writeError(w, http.StatusServiceUnavailable, "host is shutting down")
		return
	case err != nil:
		s.logger.Error("command failed", zap.String("command", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "command failed")
		return
	}

	if p, ok := result.(*panel.Panel); ok {
		writeJSON(w, http.StatusCreated, OpenedPanel{
			PanelID: p.ID(),
			URL:     requestBaseURL(r) + "/panels/" + p.ID(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// ============================================================================
// PANELS
// ============================================================================

type ctxKey struct{}

// panelCtx resolves {id} to an open panel or answers 404.
func (s *Server) panelCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.panels.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "panel not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, p)))
	})
}

func panelFrom(r *http.Request) *panel.Panel {
	return r.Context().Value(ctxKey{}).(*panel.Panel)
}

func (s *Server) handleListPanels(w http.ResponseWriter, r *http.Request) {
	list := s.panels.List()
	infos := make([]panel.Info, 0, len(list))
	for _, p := range list {
		infos = append(infos, p.Info())
	}
	writeJSON(w, http.StatusOK, map[string]any{"panels": infos})
}

func (s *Server) handlePanelDocument(w http.ResponseWriter, r *http.Request) {
	p := panelFrom(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", panel.ContentSecurityPolicy)
	if err := panel.RenderDocument(w, s.theme, "/panels/"+p.ID()+"/ws"); err != nil {
		s.logger.Error("render panel document", zap.String("panel_id", p.ID()), zap.Error(err))
	}
}

// TranscriptResponse is returned by GET /panels/{id}/transcript.
type TranscriptResponse struct {
	PanelID string       `json:"panel_id"`
	Turns   []model.Turn `json:"turns"`
}

// handlePanelTranscript returns the transcript as JSON, or as a download in
// the export format named by ?format=.
func (s *Server) handlePanelTranscript(w http.ResponseWriter, r *http.Request) {
	p := panelFrom(r)
	format := r.URL.Query().Get("format")
	if format == "" {
		writeJSON(w, http.StatusOK, TranscriptResponse{PanelID: p.ID(), Turns: p.Transcript()})
		return
	}

	exp, err := export.ForFormat(format, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := exp.Export(&export.Conversation{
		PanelID:   p.ID(),
		Title:     p.Title(),
		Model:     p.Model(),
		CreatedAt: p.CreatedAt(),
		Turns:     p.Transcript(),
	})
	if err != nil {
		s.logger.Error("export transcript", zap.String("panel_id", p.ID()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", exp.MimeType())
	w.Header().Set("Content-Disposition", `attachment; filename="chat-`+p.ID()+exp.FileExtension()+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleClosePanel(w http.ResponseWriter, r *http.Request) {
	p := panelFrom(r)
	p.Dispose()
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server started", zap.String("addr", ln.Addr().String()), zap.String("version", Version))
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for requests in flight.
// Hijacked WebSocket connections are not tracked by net/http; closing the
// panels closes them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
