// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the host command registry.
package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jeranaias/chatpanel/internal/host"
)

var (
	// ErrUnknownCommand is returned when executing an id nobody registered.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrDuplicate is returned when an id is registered twice.
	ErrDuplicate = errors.New("command already registered")
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Handler executes a command. The result is handed back to whoever invoked
// the command and may be nil.
type Handler func(ctx context.Context) (any, error)

// Command represents an action registered with the host.
type Command struct {
	// ID is the fixed identifier (e.g., "extension.startChat")
	ID string

	// Title is shown in command listings
	Title string

	// Category for grouping in listings
	Category string

	// Handler is the function that executes the command
	Handler Handler
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
	}
}

// Register adds a command. Disposing the returned Disposable removes it.
func (r *Registry) Register(cmd *Command) (host.Disposable, error) {
	if cmd == nil || cmd.ID == "" {
		return nil, errors.New("command id is required")
	}
	if cmd.Handler == nil {
		return nil, fmt.Errorf("command %s: handler is required", cmd.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmd.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, cmd.ID)
	}
	r.commands[cmd.ID] = cmd

	return host.Once(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.commands[cmd.ID] == cmd {
			delete(r.commands, cmd.ID)
		}
	}), nil
}

// Get retrieves a command by id, or nil.
func (r *Registry) Get(id string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[id]
}

// All returns all registered commands sorted by id.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	r.mu.RUnlock()

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].ID < cmds[j].ID })
	return cmds
}

// Execute runs the command registered under id.
func (r *Registry) Execute(ctx context.Context, id string) (any, error) {
	cmd := r.Get(id)
	if cmd == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	return cmd.Handler(ctx)
}
