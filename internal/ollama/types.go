// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "time"

// Roles understood by /api/chat.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the conversation sent to /api/chat.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage returns a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage returns an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Reply returns a response carrying content as the assistant message.
func Reply(content string) *ChatResponse {
	msg := NewAssistantMessage(content)
	return &ChatResponse{Message: &msg, Done: true}
}

// ChatRequest is the /api/chat body. Stream is always sent, and always
// false, because Ollama streams by default.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ChatResponse is a non-streamed /api/chat reply. Message is nil when the
// body had none. Error is set when Ollama reports a failure with status 200.
type ChatResponse struct {
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	Message    *Message  `json:"message"`
	Error      string    `json:"error,omitempty"`
	Done       bool      `json:"done"`
	DoneReason string    `json:"done_reason,omitempty"`
	EvalCount  int       `json:"eval_count,omitempty"`
}

// ModelInfo is one entry of /api/tags.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// ListModelsResponse is the /api/tags body.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// OllamaError is the body Ollama sends with a failed request.
type OllamaError struct {
	Error string `json:"error"`
}
