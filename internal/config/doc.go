// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for chatpanel.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - LocalConfig: Chat service URL, model and request timeout
//   - ServerConfig: HTTP listen address and rate limit
//   - EventsConfig: Optional NATS event stream
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATPANEL_*)
//   - The file named by --config
//   - ~/.chatpanel/config.toml
//   - ~/.chatpanel/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL: cfg.Local.OllamaURL,
//	    Timeout: cfg.Local.RequestTimeout(),
//	})
package config
