// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/chatpanel/internal/commands"
	"github.com/jeranaias/chatpanel/internal/extension"
	"github.com/jeranaias/chatpanel/internal/host"
	"github.com/jeranaias/chatpanel/internal/model"
	"github.com/jeranaias/chatpanel/internal/ollama"
	"github.com/jeranaias/chatpanel/internal/panel"
)

// =============================================================================
// FIXTURES
// =============================================================================

type echoCompleter struct{}

func (echoCompleter) Chat(_ context.Context, _ string, messages []ollama.Message) (*ollama.ChatResponse, error) {
	return ollama.Reply("echo: " + messages[len(messages)-1].Content), nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) CheckRunning(context.Context) error { return f.err }
func (f fakeHealth) BaseURL() string                    { return "http://ollama.test" }

type fixture struct {
	ts       *httptest.Server
	srv      *Server
	registry *commands.Registry
	panels   *panel.Manager
}

func newFixture(t *testing.T, health HealthChecker, opts Options) *fixture {
	t.Helper()

	hctx := host.NewContext()
	registry := commands.NewRegistry()
	panels := panel.NewManager(echoCompleter{}, panel.ManagerConfig{})
	require.NoError(t, extension.Activate(hctx, registry, panels))

	srv := New(registry, panels, health, opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		extension.Deactivate(hctx)
		ts.Close()
	})

	return &fixture{ts: ts, srv: srv, registry: registry, panels: panels}
}

func (f *fixture) openPanel(t *testing.T) OpenedPanel {
	t.Helper()
	resp, err := http.Post(f.ts.URL+"/commands/"+extension.StartChatCommand, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var opened OpenedPanel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&opened))
	return opened
}

func (f *fixture) dial(t *testing.T, panelID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/panels/" + panelID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) panel.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg panel.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

// =============================================================================
// HEALTH AND COMMANDS
// =============================================================================

func TestHealth(t *testing.T) {
	tests := []struct {
		name      string
		health    HealthChecker
		status    string
		reachable bool
	}{
		{"reachable", fakeHealth{}, "ok", true},
		{"unreachable", fakeHealth{err: ollama.ErrNotRunning}, "degraded", false},
		{"no checker", nil, "ok", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.health, Options{})

			var resp HealthResponse
			assert.Equal(t, http.StatusOK, getJSON(t, f.ts.URL+"/health", &resp))
			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, tc.reachable, resp.Service.Reachable)
			assert.Equal(t, Version, resp.Version)
		})
	}
}

func TestListCommands(t *testing.T) {
	f := newFixture(t, nil, Options{})

	var body struct {
		Commands []CommandInfo `json:"commands"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, f.ts.URL+"/commands", &body))
	require.Len(t, body.Commands, 1)
	assert.Equal(t, "extension.startChat", body.Commands[0].ID)
	assert.Equal(t, "Chat with AI", body.Commands[0].Title)
}

func TestExecuteCommand_StartChat(t *testing.T) {
	f := newFixture(t, nil, Options{})

	first := f.openPanel(t)
	second := f.openPanel(t)

	assert.NotEqual(t, first.PanelID, second.PanelID)
	assert.Equal(t, f.ts.URL+"/panels/"+first.PanelID, first.URL)
	assert.Equal(t, 2, f.panels.Len())
}

func TestExecuteCommand_Unknown(t *testing.T) {
	f := newFixture(t, nil, Options{})

	resp, err := http.Post(f.ts.URL+"/commands/extension.nope", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusNotFound, body.Error.Code)
	assert.Contains(t, body.Error.Message, "extension.nope")
}

func TestExecuteCommand_NonPanelResult(t *testing.T) {
	f := newFixture(t, nil, Options{})
	_, err := f.registry.Register(&commands.Command{
		ID:      "test.answer",
		Handler: func(context.Context) (any, error) { return 42, nil },
	})
	require.NoError(t, err)
	_, err = f.registry.Register(&commands.Command{
		ID:      "test.broken",
		Handler: func(context.Context) (any, error) { return nil, errors.New("boom") },
	})
	require.NoError(t, err)

	resp, err := http.Post(f.ts.URL+"/commands/test.answer", "", nil)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"result":42}`, string(body))

	resp, err = http.Post(f.ts.URL+"/commands/test.broken", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

// =============================================================================
// PANELS
// =============================================================================

func TestPanelDocument(t *testing.T) {
	f := newFixture(t, nil, Options{Theme: "light"})
	opened := f.openPanel(t)

	resp, err := http.Get(opened.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, panel.ContentSecurityPolicy, resp.Header.Get("Content-Security-Policy"))
	assert.Contains(t, string(body), "<title>Chat with AI</title>")
	assert.Contains(t, string(body), opened.PanelID)
}

func TestPanelNotFound(t *testing.T) {
	f := newFixture(t, nil, Options{})

	for _, path := range []string{"/panels/missing", "/panels/missing/transcript"} {
		assert.Equal(t, http.StatusNotFound, getJSON(t, f.ts.URL+path, nil), path)
	}
}

func TestListAndClosePanels(t *testing.T) {
	f := newFixture(t, nil, Options{})
	opened := f.openPanel(t)

	var list struct {
		Panels []panel.Info `json:"panels"`
	}
	getJSON(t, f.ts.URL+"/panels", &list)
	require.Len(t, list.Panels, 1)
	assert.Equal(t, opened.PanelID, list.Panels[0].ID)
	assert.Equal(t, "chatWithAI", list.Panels[0].ViewType)

	req, _ := http.NewRequest(http.MethodDelete, opened.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, f.panels.Len())

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// WEBSOCKET CHANNEL
// =============================================================================

func TestPanelSocket_RoundTrip(t *testing.T) {
	f := newFixture(t, nil, Options{})
	opened := f.openPanel(t)
	conn := f.dial(t, opened.PanelID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(panel.Message{Command: "bogus", Text: "x"}))
	require.NoError(t, conn.WriteJSON(panel.SendMessage("Hello")))

	assert.Equal(t, panel.ShowResponse("User: Hello"), readMessage(t, conn))
	assert.Equal(t, panel.ShowResponse("Assistant: echo: Hello"), readMessage(t, conn))

	var transcript TranscriptResponse
	getJSON(t, opened.URL+"/transcript", &transcript)
	assert.Equal(t, []model.Turn{
		model.UserTurn("Hello"),
		model.AssistantTurn("echo: Hello"),
	}, transcript.Turns)
}

func TestPanelTranscript_Export(t *testing.T) {
	f := newFixture(t, nil, Options{})
	opened := f.openPanel(t)
	conn := f.dial(t, opened.PanelID)

	require.NoError(t, conn.WriteJSON(panel.SendMessage("Hello")))
	readMessage(t, conn)
	readMessage(t, conn)

	resp, err := http.Get(opened.URL + "/transcript?format=text")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "chat-"+opened.PanelID+".txt")
	assert.Equal(t, "User: Hello\n\nAssistant: echo: Hello\n", string(body))

	resp, err = http.Get(opened.URL + "/transcript?format=markdown")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "model: llama3")
	assert.Contains(t, string(body), "### Assistant\n\necho: Hello")

	var errBody struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	assert.Equal(t, http.StatusBadRequest, getJSON(t, opened.URL+"/transcript?format=pdf", &errBody))
	assert.Equal(t, http.StatusBadRequest, errBody.Error.Code)
}

func TestPanelSocket_SecondSurfaceRejected(t *testing.T) {
	f := newFixture(t, nil, Options{})
	opened := f.openPanel(t)
	f.dial(t, opened.PanelID)

	p, ok := f.panels.Get(opened.PanelID)
	require.True(t, ok)
	require.Eventually(t, p.Attached, 2*time.Second, 5*time.Millisecond)

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/panels/" + opened.PanelID + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPanelSocket_LargeMessageIsRelayed(t *testing.T) {
	f := newFixture(t, nil, Options{})
	opened := f.openPanel(t)
	conn := f.dial(t, opened.PanelID)

	big := strings.Repeat("x", 2<<20)
	require.NoError(t, conn.WriteJSON(panel.SendMessage(big)))

	assert.Equal(t, "User: "+big, readMessage(t, conn).Text)
	assert.Equal(t, "Assistant: echo: "+big, readMessage(t, conn).Text)

	p, ok := f.panels.Get(opened.PanelID)
	require.True(t, ok, "panel disposed by a large frame")
	assert.True(t, p.Attached())
	assert.Len(t, p.Transcript(), 2)
}

func TestPanelSocket_CloseDisposesPanel(t *testing.T) {
	f := newFixture(t, nil, Options{})
	opened := f.openPanel(t)
	conn := f.dial(t, opened.PanelID)

	p, ok := f.panels.Get(opened.PanelID)
	require.True(t, ok)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("panel not disposed after the socket closed")
	}
	assert.Equal(t, 0, f.panels.Len())
}

func TestPanelSocket_DeleteClosesSocket(t *testing.T) {
	f := newFixture(t, nil, Options{})
	opened := f.openPanel(t)
	conn := f.dial(t, opened.PanelID)

	p, ok := f.panels.Get(opened.PanelID)
	require.True(t, ok)
	require.Eventually(t, p.Attached, 2*time.Second, 5*time.Millisecond)
	require.True(t, f.panels.Close(opened.PanelID))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "err = %v", err)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestSecurityHeaders(t *testing.T) {
	f := newFixture(t, nil, Options{})

	resp, err := http.Get(f.ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'", resp.Header.Get("Content-Security-Policy"))
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, nil, Options{RateLimitPerMinute: 3})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		codes = append(codes, getJSON(t, f.ts.URL+"/commands", nil))
	}
	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.7:5000", nil, "203.0.113.7"},
		{"spoofed header from untrusted peer", "203.0.113.7:5000", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7"},
		{"forwarded by trusted proxy", "127.0.0.1:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "198.51.100.1"},
		{"real ip from trusted proxy", "10.1.2.3:5000", map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"invalid forwarded value", "127.0.0.1:5000", map[string]string{"X-Forwarded-For": "not-an-ip"}, "127.0.0.1"},
		{"no port", "198.51.100.9", nil, "198.51.100.9"},
		{"ipv6 loopback proxy", "[::1]:5000", map[string]string{"X-Forwarded-For": "2001:db8::1"}, "2001:db8::1"},
		{"mapped ipv4 proxy", "[::ffff:127.0.0.1]:5000", map[string]string{"X-Real-IP": "198.51.100.3"}, "198.51.100.3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, GetClientIP(r))
		})
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Len())
}
