// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/chatpanel/internal/model"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is a snapshot of one panel's transcript.
type Conversation struct {
	PanelID   string       `json:"panel_id"`
	Title     string       `json:"title"`
	Model     string       `json:"model"`
	CreatedAt time.Time    `json:"created_at"`
	Turns     []model.Turn `json:"turns"`
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a conversation in one format.
type Exporter interface {
	Export(conv *Conversation) ([]byte, error)

	// FileExtension returns the extension for saved files, e.g. ".md".
	FileExtension() string

	// MimeType returns the Content-Type for served exports.
	MimeType() string
}

// Format names accepted by ForFormat.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by ForFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// errNilConversation is returned when an exporter is given nothing.
var errNilConversation = errors.New("conversation is nil")

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds model, panel and creation time to the output.
	IncludeMetadata bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true}
}

// ForFormat returns the exporter for a format name. "md" and "txt" are
// accepted as aliases.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, "md":
		return NewMarkdownExporter(opts), nil
	case FormatText, "txt":
		return NewTextExporter(), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// formatTimestamp formats a timestamp for human-readable display.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("January 2, 2006 at 15:04 UTC")
}
