// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events publishes panel lifecycle events to NATS.
//
// Events never carry message content, only counts and flags. When no NATS
// URL is configured the Nop publisher is used and nothing leaves the process.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event names, appended to the configured subject prefix.
const (
	PanelOpened   = "panel.opened"
	PanelClosed   = "panel.closed"
	TurnCompleted = "turn.completed"
)

// PanelEvent is published when a panel opens or closes.
type PanelEvent struct {
	PanelID   string `json:"panel_id"`
	Turns     int    `json:"turns"`
	Timestamp string `json:"timestamp"`
}

// TurnEvent is published after each assistant turn is recorded.
type TurnEvent struct {
	PanelID   string `json:"panel_id"`
	Role      string `json:"role"`
	Failed    bool   `json:"failed"`
	Chars     int    `json:"chars"`
	Timestamp string `json:"timestamp"`
}

// Now formats the current time the way events carry it.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Publisher sends an event under name.
type Publisher interface {
	Publish(name string, data any) error
	Close()
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(string, any) error { return nil }

// Close does nothing.
func (Nop) Close() {}

// Subject joins prefix and name with a dot.
func Subject(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// NATS publishes events as JSON on "<prefix>.<name>".
type NATS struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// Connect dials the NATS server. Reconnects are handled by the client.
func Connect(ctx context.Context, url, token, prefix string, logger *zap.Logger) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("chatpanel"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATS{conn: nc, prefix: prefix, logger: logger}, nil
}

// Publish marshals data and publishes it.
func (n *NATS) Publish(name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.conn.Publish(Subject(n.prefix, name), payload)
}

// Close flushes pending events and closes the connection.
func (n *NATS) Close() {
	if err := n.conn.Flush(); err != nil {
		n.logger.Debug("nats flush failed", zap.Error(err))
	}
	n.conn.Close()
}
