// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat transcripts.
package model

import (
	"sync"
	"testing"
)

// =============================================================================
// TURN TESTS
// =============================================================================

func TestTurn_Label(t *testing.T) {
	tests := []struct {
		turn Turn
		want string
	}{
		{UserTurn("Hello"), "User: Hello"},
		{AssistantTurn("Hi!"), "Assistant: Hi!"},
		{UserTurn(""), "User: "},
	}

	for _, tc := range tests {
		if got := tc.turn.Label(); got != tc.want {
			t.Errorf("Label() = %q, want %q", got, tc.want)
		}
	}
}

func TestTurn_ToOllama(t *testing.T) {
	msg := AssistantTurn("reply").ToOllama()

	if msg.Role != "assistant" || msg.Content != "reply" {
		t.Errorf("ToOllama() = %+v", msg)
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_AppendKeepsOrder(t *testing.T) {
	tr := NewTranscript()
	if !tr.IsEmpty() {
		t.Fatal("new transcript should be empty")
	}

	tr.Append(UserTurn("Hello"))
	tr.Append(AssistantTurn("Hi"))
	tr.Append(UserTurn("Bye"))

	turns := tr.Turns()
	if len(turns) != 3 {
		t.Fatalf("Len = %d, want 3", len(turns))
	}
	want := []Turn{UserTurn("Hello"), AssistantTurn("Hi"), UserTurn("Bye")}
	for i := range want {
		if turns[i] != want[i] {
			t.Errorf("turn %d = %+v, want %+v", i, turns[i], want[i])
		}
	}

	last, ok := tr.Last()
	if !ok || last.Content != "Bye" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestTranscript_TurnsIsACopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(UserTurn("Hello"))

	turns := tr.Turns()
	turns[0].Content = "tampered"

	if got := tr.Turns()[0].Content; got != "Hello" {
		t.Errorf("transcript mutated through snapshot: %q", got)
	}
}

func TestTranscript_MessagesIncludesEmptyTurns(t *testing.T) {
	tr := NewTranscript()
	tr.Append(UserTurn(""))
	tr.Append(AssistantTurn("?"))

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages() len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("Messages() roles = %q, %q", msgs[0].Role, msgs[1].Role)
	}
}

func TestTranscript_ConcurrentReaders(t *testing.T) {
	tr := NewTranscript()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			tr.Append(UserTurn("u"))
		}
	}()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = tr.Turns()
				_ = tr.Len()
			}
		}()
	}

	wg.Wait()
	if tr.Len() != 100 {
		t.Errorf("Len = %d, want 100", tr.Len())
	}
}
