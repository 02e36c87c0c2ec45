// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extension wires the chat panel into the host: it contributes the
// startChat command and ties open panels to the activation context.
package extension

import (
	"context"

	"github.com/jeranaias/chatpanel/internal/commands"
	"github.com/jeranaias/chatpanel/internal/host"
	"github.com/jeranaias/chatpanel/internal/panel"
)

// StartChatCommand is the id of the command that opens a chat panel.
const StartChatCommand = "extension.startChat"

// Activate registers the startChat command and pushes its registration and
// the panel manager onto hctx. Each execution opens a new panel and returns
// it as the command result.
func Activate(hctx *host.Context, registry *commands.Registry, panels *panel.Manager) error {
	reg, err := registry.Register(&commands.Command{
		ID:       StartChatCommand,
		Title:    panel.Title,
		Category: "Chat",
		Handler: func(ctx context.Context) (any, error) {
			p, err := panels.Open(ctx)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	})
	if err != nil {
		return err
	}

	hctx.Push(reg, host.DisposableFunc(panels.Dispose))
	return nil
}

// Deactivate releases everything Activate registered. The command goes away
// and every open panel is closed.
func Deactivate(hctx *host.Context) {
	hctx.Dispose()
}
