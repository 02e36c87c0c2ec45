// chatpanel - A chat panel host for local LLM chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/chatpanel/internal/cli"
	"github.com/jeranaias/chatpanel/internal/commands"
	"github.com/jeranaias/chatpanel/internal/config"
	"github.com/jeranaias/chatpanel/internal/events"
	"github.com/jeranaias/chatpanel/internal/extension"
	"github.com/jeranaias/chatpanel/internal/host"
	"github.com/jeranaias/chatpanel/internal/ollama"
	"github.com/jeranaias/chatpanel/internal/panel"
	"github.com/jeranaias/chatpanel/internal/server"
	"github.com/jeranaias/chatpanel/internal/session"
	"github.com/jeranaias/chatpanel/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = server.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	verbose    bool
	openURL    string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatpanel",
	Short: "Chat panels backed by a local Ollama model",
	Long: `chatpanel hosts chat panels in the browser or the terminal.

Each panel keeps its own conversation and sends the full history to the
local Ollama service on every message.

Run without arguments to start the host.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromPath(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, err = newLogger(cfg.Logging.Level, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		lipgloss.SetColorProfile(cli.ColorProfile(os.Stdout))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the panel host",
	Long: `Starts the HTTP host and activates the chat extension.

Open a panel with:
  chatpanel open
  curl -X POST http://127.0.0.1:8787/commands/extension.startChat`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a chat panel on a running host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		base := openURL
		if base == "" {
			base = cfg.Server.BaseURL()
		}
		client := &http.Client{Timeout: 10 * time.Second}
		opened, err := cli.OpenPanel(cmd.Context(), client, base)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), opened.URL)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the model in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the chat service and list its models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunStatus(cmd.Context(), newClient(), cfg, styles.NewTheme(cfg.UI.Theme), cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "chatpanel %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.toml or .json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	openCmd.Flags().StringVar(&openURL, "url", "", "host base URL (default from config)")

	rootCmd.AddCommand(serveCmd, openCmd, chatCmd, statusCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newLogger builds a production zap logger at the configured level.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func newClient() *ollama.Client {
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Local.OllamaURL,
		Timeout:      cfg.Local.RequestTimeout(),
		DefaultModel: cfg.Local.Model,
	})
}

func newManager(client *ollama.Client, publisher events.Publisher) *panel.Manager {
	return panel.NewManager(client, panel.ManagerConfig{
		Model:     cfg.Local.Model,
		Timeout:   cfg.Local.RequestTimeout(),
		QueueSize: cfg.Panel.QueueSize,
		Logger:    logger,
		Publisher: publisher,
	})
}

// connectEvents returns the NATS publisher when configured and a no-op
// publisher otherwise. A failed connection is logged, not fatal.
func connectEvents(ctx context.Context) events.Publisher {
	if !cfg.Events.Enabled() {
		return events.Nop{}
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	nc, err := events.Connect(dialCtx, cfg.Events.NATSURL, cfg.Events.NATSToken, cfg.Events.SubjectPrefix, logger.Named("events"))
	if err != nil {
		logger.Warn("events disabled", zap.Error(err))
		return events.Nop{}
	}
	logger.Info("events enabled", zap.String("url", cfg.Events.NATSURL), zap.String("prefix", cfg.Events.SubjectPrefix))
	return nc
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client := newClient()
	publisher := connectEvents(ctx)
	defer publisher.Close()

	panels := newManager(client, publisher)
	registry := commands.NewRegistry()
	hctx := host.NewContext()
	if err := extension.Activate(hctx, registry, panels); err != nil {
		return fmt.Errorf("activate extension: %w", err)
	}
	defer extension.Deactivate(hctx)

	srv := server.New(registry, panels, client, server.Options{
		Addr:               cfg.Server.Addr(),
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		Theme:              cfg.UI.Theme,
		Logger:             logger,
	})

	if !cfg.Server.IsLoopback() {
		logger.Warn("server listens beyond loopback; panels have no authentication",
			zap.String("addr", cfg.Server.Addr()))
	}
	if err := client.CheckRunning(ctx); err != nil {
		logger.Warn("chat service not reachable; replies will report it until it starts",
			zap.String("url", client.BaseURL()), zap.Error(err))
	}

	reaper := session.NewReaper(session.Config{Timeout: cfg.Panel.IdleTimeout()}, func() []session.Idler {
		open := panels.List()
		idlers := make([]session.Idler, len(open))
		for i, p := range open {
			idlers[i] = p
		}
		return idlers
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error { return reaper.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Disposing panels first closes their sockets, which net/http does
		// not track after the upgrade.
		panels.Dispose()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client := newClient()
	publisher := connectEvents(ctx)
	defer publisher.Close()

	panels := newManager(client, publisher)
	defer panels.Dispose()

	input := cli.NewLineInput()
	defer input.Close()

	width := 0
	if cli.IsTerminal(os.Stdout) {
		width = cli.TerminalWidth(os.Stdout) - 2
	}

	return cli.RunChat(ctx, cli.ChatOptions{
		Panels: panels,
		Theme:  styles.NewTheme(cfg.UI.Theme),
		Input:  input,
		Out:    cmd.OutOrStdout(),
		Width:  width,
	})
}
