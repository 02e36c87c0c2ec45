// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay bridges one user turn to one chat completion call.
package relay

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatpanel/internal/model"
	"github.com/jeranaias/chatpanel/internal/ollama"
)

// UnreachableReply is the assistant text recorded whenever the chat service
// call fails, whatever the cause.
const UnreachableReply = "Error: Unable to reach the AI service"

// Completer is the chat completion service. *ollama.Client satisfies it.
type Completer interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (*ollama.ChatResponse, error)
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome is the result of one exchange with the chat service. It has a
// single failure variant that carries no detail.
type Outcome struct {
	Reply  string
	Failed bool
}

// Succeeded wraps a service reply.
func Succeeded(reply string) Outcome {
	return Outcome{Reply: reply}
}

// Unreachable is the failed outcome.
func Unreachable() Outcome {
	return Outcome{Failed: true}
}

// Turn returns the assistant turn to record and display for this outcome.
func (o Outcome) Turn() model.Turn {
	if o.Failed {
		return model.AssistantTurn(UnreachableReply)
	}
	return model.AssistantTurn(o.Reply)
}

// errEmptyReply marks a response that decoded but carried no message.
var errEmptyReply = errors.New("chat service returned no message")

// Exchange sends history followed by a new user turn to the completer and
// waits for exactly one reply. history is not modified.
//
// The returned error is diagnostic only: whenever it is non-nil the Outcome
// is already the failed variant, so callers never need to branch on it.
func Exchange(ctx context.Context, c Completer, modelName string, history []model.Turn, text string) (Outcome, error) {
	turns := make([]model.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, model.UserTurn(text))

	resp, err := c.Chat(ctx, modelName, model.ToOllamaMessages(turns))
	if err != nil {
		return Unreachable(), err
	}
	if resp == nil || resp.Message == nil {
		return Unreachable(), errEmptyReply
	}
	return Succeeded(resp.Message.Content), nil
}

// =============================================================================
// RELAY
// =============================================================================

// Relay owns the transcript of one panel and forwards each user turn, with
// the full history, to the chat service.
//
// Send is meant to be called by one goroutine at a time; the panel worker
// guarantees that.
type Relay struct {
	completer  Completer
	model      string
	timeout    time.Duration
	transcript *model.Transcript
	logger     *zap.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithModel sets the model name sent with every call.
func WithModel(name string) Option {
	return func(r *Relay) { r.model = name }
}

// WithTimeout bounds each service call. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(r *Relay) { r.timeout = d }
}

// WithLogger sets the logger used for failure traces.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

// New creates a Relay with an empty transcript.
func New(c Completer, opts ...Option) *Relay {
	r := &Relay{
		completer:  c,
		model:      ollama.DefaultModel,
		transcript: model.NewTranscript(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Model returns the model name used for calls.
func (r *Relay) Model() string {
	return r.model
}

// Send appends a user turn, asks the service for a reply using the whole
// transcript as context, appends the assistant turn and returns it.
//
// Send never fails: any service error yields the UnreachableReply turn,
// which is recorded like a real reply.
func (r *Relay) Send(ctx context.Context, text string) model.Turn {
	return r.Submit(ctx, text).Turn()
}

// Submit is Send returning the Outcome, for callers that need to know
// whether the recorded reply is the failure placeholder.
func (r *Relay) Submit(ctx context.Context, text string) Outcome {
	history := r.transcript.Turns()
	r.transcript.Append(model.UserTurn(text))

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := Exchange(callCtx, r.completer, r.model, history, text)
	if err != nil {
		r.logger.Warn("chat service call failed",
			zap.String("model", r.model),
			zap.Int("turns", len(history)+1),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	} else {
		r.logger.Debug("chat service replied",
			zap.String("model", r.model),
			zap.Int("turns", len(history)+1),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	r.transcript.Append(outcome.Turn())
	return outcome
}

// History returns a copy of the transcript.
func (r *Relay) History() []model.Turn {
	return r.transcript.Turns()
}

// Len returns the number of recorded turns.
func (r *Relay) Len() int {
	return r.transcript.Len()
}
