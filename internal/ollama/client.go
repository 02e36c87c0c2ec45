// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the local Ollama endpoint. 127.0.0.1 rather than
	// localhost so resolution never picks an IPv6 address Ollama isn't bound to.
	DefaultBaseURL = "http://127.0.0.1:11434"

	// DefaultModel is the model used when a request names none.
	DefaultModel = "llama3"

	// DefaultTimeout bounds one chat call including reading the reply.
	DefaultTimeout = 5 * time.Minute

	// maxErrorBody caps how much of a failed response is read for a message.
	maxErrorBody = 4 << 10
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotRunning
	KindTimeout
	KindModelNotFound
	KindBadResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotRunning:
		return "not running"
	case KindTimeout:
		return "timeout"
	case KindModelNotFound:
		return "model not found"
	case KindBadResponse:
		return "bad response"
	default:
		return "unknown"
	}
}

// ClientError is returned by every Client method that fails.
type ClientError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *ClientError) Unwrap() error { return e.Cause }

// Is matches any ClientError of the same kind, so errors.Is(err,
// ErrNotRunning) holds for wrapped transport failures too.
func (e *ClientError) Is(target error) bool {
	var t *ClientError
	return errors.As(target, &t) && t.Cause == nil && t.Kind == e.Kind
}

var (
	ErrNotRunning    = &ClientError{Kind: KindNotRunning, Message: "Ollama is not running"}
	ErrTimeout       = &ClientError{Kind: KindTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Kind: KindModelNotFound, Message: "model not found"}
)

// KindOf reports the kind of err, or KindUnknown if it is not a ClientError.
func KindOf(err error) ErrorKind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsNotRunning reports whether err means Ollama could not be reached.
func IsNotRunning(err error) bool { return KindOf(err) == KindNotRunning }

// IsTimeout reports whether err is a deadline or cancellation.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsModelNotFound reports whether Ollama rejected the model name.
func IsModelNotFound(err error) bool { return KindOf(err) == KindModelNotFound }

func badResponse(msg string, cause error) error {
	return &ClientError{Kind: KindBadResponse, Message: msg, Cause: cause}
}

// classifyTransport maps an http.Client.Do failure to a ClientError.
func classifyTransport(err error) error {
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &ClientError{Kind: KindTimeout, Message: ErrTimeout.Message, Cause: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &ClientError{Kind: KindTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Kind: KindNotRunning, Message: ErrNotRunning.Message, Cause: err}
}

// classifyStatus turns a non-200 response into an error, preferring the
// message Ollama puts in its {"error": ...} body.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrModelNotFound
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body OllamaError
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return badResponse(body.Error, nil)
	}
	return badResponse("unexpected status "+resp.Status, nil)
}

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig holds the Ollama endpoint settings. Zero fields take defaults.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	DefaultModel string
}

// DefaultConfig returns the configuration for a stock local Ollama.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		DefaultModel: DefaultModel,
	}
}

// Client talks to the Ollama HTTP API. It is safe for concurrent use.
type Client struct {
	baseURL      string
	defaultModel string
	http         *http.Client
}

// NewClient returns a client for DefaultConfig.
func NewClient() *Client {
	return NewClientWithConfig(nil)
}

// NewClientWithConfig returns a client for cfg. cfg may be nil.
func NewClientWithConfig(cfg *ClientConfig) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		defaultModel: DefaultModel,
		http:         &http.Client{Timeout: DefaultTimeout},
	}
	if cfg == nil {
		return c
	}
	if cfg.BaseURL != "" {
		c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.DefaultModel != "" {
		c.defaultModel = cfg.DefaultModel
	}
	if cfg.Timeout > 0 {
		c.http.Timeout = cfg.Timeout
	}
	return c
}

// DefaultModel returns the model used when a call names none.
func (c *Client) DefaultModel() string { return c.defaultModel }

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends a request to path and decodes a 200 reply into out. in, when
// non-nil, is sent as the JSON body. out may be nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return badResponse("encode request", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &ClientError{Kind: KindNotRunning, Message: "build request", Cause: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return badResponse("decode response", err)
	}
	return nil
}

// CheckRunning succeeds when the Ollama root endpoint answers 200.
func (c *Client) CheckRunning(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/", nil, nil)
	if KindOf(err) == KindModelNotFound {
		return badResponse("unexpected status 404 Not Found", nil)
	}
	return err
}

// ListModels returns the locally installed models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out ListModelsResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// Chat posts the whole conversation to /api/chat with streaming off and
// returns the single reply. An empty model selects DefaultModel.
//
// A 200 body that carries an error, or no assistant message, is a
// KindBadResponse error. An assistant message with empty content is a reply.
func (c *Client) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	if model == "" {
		model = c.defaultModel
	}
	var out ChatResponse
	err := c.do(ctx, http.MethodPost, "/api/chat", ChatRequest{Model: model, Messages: messages}, &out)
	if err != nil {
		return nil, err
	}
	switch {
	case out.Error != "":
		return nil, badResponse(out.Error, nil)
	case out.Message == nil:
		return nil, badResponse("reply has no message", nil)
	case out.Message.Role != RoleAssistant:
		return nil, badResponse("reply has role "+strconv.Quote(out.Message.Role), nil)
	}
	return &out, nil
}
