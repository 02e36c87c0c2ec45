// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat transcripts.
package model

import (
	"sync"

	"github.com/jeranaias/chatpanel/internal/ollama"
)

// Transcript is the ordered, append-only history of one chat panel.
//
// A Transcript lives in memory only. Appends come from a single owner; reads
// may happen concurrently and always get a copy.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{turns: make([]Turn, 0, 8)}
}

// Append adds a turn at the end of the transcript.
func (t *Transcript) Append(turn Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, turn)
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// IsEmpty returns true if no turn has been appended yet.
func (t *Transcript) IsEmpty() bool {
	return t.Len() == 0
}

// Last returns the most recent turn and false if the transcript is empty.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// Turns returns a copy of all turns in conversation order.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Messages returns the transcript in the chat service wire form.
// Every turn is included, empty ones too.
func (t *Transcript) Messages() []ollama.Message {
	return ToOllamaMessages(t.Turns())
}

// ToOllamaMessages converts turns to the chat service wire form.
func ToOllamaMessages(turns []Turn) []ollama.Message {
	messages := make([]ollama.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, turn.ToOllama())
	}
	return messages
}
