// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP host for chat panels.
//
// A browser plays the display surface: it loads a panel's document and talks
// to the panel over a WebSocket carrying {command, text} envelopes.
//
// # Endpoints
//
//   - GET    /health                - Process and chat service status
//   - GET    /commands              - Registered commands
//   - POST   /commands/{id}         - Execute a command
//   - GET    /panels                - Open panels
//   - GET    /panels/{id}           - Panel document
//   - GET    /panels/{id}/ws        - Panel message channel
//   - GET    /panels/{id}/transcript - Transcript snapshot
//   - DELETE /panels/{id}           - Close a panel
//
// # Middleware
//
//   - Panic recovery with stack trace logging
//   - Security headers (X-Content-Type-Options, X-Frame-Options, CSP)
//   - Request logging with zap
//   - Per-client rate limiting (token bucket)
//
// # Usage
//
//	srv := server.New(registry, panels, client, server.Options{
//		Addr:               cfg.Server.Addr(),
//		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
//		Theme:              cfg.UI.Theme,
//		Logger:             logger,
//	})
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
