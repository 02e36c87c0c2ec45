// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama is a small client for the local Ollama HTTP API.
//
// Only the non-streaming chat endpoint is used: every call carries the whole
// conversation and returns exactly one assistant message. Failures come back
// as *ClientError with a Kind; the sentinels ErrNotRunning, ErrTimeout and
// ErrModelNotFound work with errors.Is.
//
//	client := ollama.NewClient()
//	resp, err := client.Chat(ctx, "llama3", []ollama.Message{
//	    ollama.NewUserMessage("Hello"),
//	})
//	if errors.Is(err, ollama.ErrNotRunning) {
//	    // start `ollama serve`
//	}
package ollama
