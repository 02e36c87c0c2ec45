// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import "strings"

// TextExporter writes each turn the way the panel displays it, one
// "Speaker: text" entry per paragraph.
type TextExporter struct{}

// NewTextExporter creates a new plain text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Export converts a conversation to plain text.
func (e *TextExporter) Export(conv *Conversation) ([]byte, error) {
	if conv == nil {
		return nil, errNilConversation
	}
	entries := make([]string, len(conv.Turns))
	for i, turn := range conv.Turns {
		entries[i] = turn.Label()
	}
	if len(entries) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(entries, "\n\n") + "\n"), nil
}

// FileExtension returns the file extension for plain text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for plain text.
func (e *TextExporter) MimeType() string {
	return "text/plain; charset=utf-8"
}
