// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat transcripts.
//
// # Key Types
//
//   - Turn: One immutable message tagged user or assistant
//   - Transcript: Ordered, append-only list of Turns for one panel
//   - Role: Turn role enumeration (user, assistant)
//
// # Usage
//
//	tr := model.NewTranscript()
//	tr.Append(model.UserTurn("Hello"))
//	tr.Append(model.AssistantTurn("Hi!"))
//	msgs := tr.Messages() // wire form for the chat service
package model
