// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"testing"
)

func okHandler(result any) Handler {
	return func(context.Context) (any, error) { return result, nil }
}

func TestRegistry_RegisterAndExecute(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Register(&Command{ID: "extension.startChat", Title: "Chat with AI", Handler: okHandler(42)}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := r.Execute(context.Background(), "extension.startChat")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Execute() = %v, want 42", got)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		cmd  *Command
	}{
		{"nil", nil},
		{"no id", &Command{Handler: okHandler(nil)}},
		{"no handler", &Command{ID: "x"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := r.Register(tc.cmd); err == nil {
				t.Error("Register() should fail")
			}
		})
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{ID: "a", Handler: okHandler(nil)})

	_, err := r.Register(&Command{ID: "a", Handler: okHandler(nil)})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Register() error = %v, want ErrDuplicate", err)
	}
}

func TestRegistry_DisposeUnregisters(t *testing.T) {
	r := NewRegistry()
	d, err := r.Register(&Command{ID: "a", Handler: okHandler(nil)})
	if err != nil {
		t.Fatal(err)
	}

	d.Dispose()

	if r.Get("a") != nil {
		t.Error("command should be gone after dispose")
	}
	if _, err := r.Execute(context.Background(), "a"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Execute() error = %v, want ErrUnknownCommand", err)
	}

	// A stale disposable must not remove a newer registration.
	r.Register(&Command{ID: "a", Handler: okHandler(nil)})
	d.Dispose()
	if r.Get("a") == nil {
		t.Error("re-registered command removed by stale disposable")
	}
}

func TestRegistry_AllSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{ID: "b", Handler: okHandler(nil)})
	r.Register(&Command{ID: "a", Handler: okHandler(nil)})

	all := r.All()
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Errorf("All() = %v", all)
	}
}
