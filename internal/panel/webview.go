// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"embed"
	"html/template"
	"io"

	"github.com/jeranaias/chatpanel/internal/ui/styles"
)

//go:embed ui/index.html
var uiFS embed.FS

var document = template.Must(template.ParseFS(uiFS, "ui/index.html"))

// ContentSecurityPolicy is the policy the panel document is served with. The
// document is self-contained: inline style and script, and a WebSocket back
// to the host.
const ContentSecurityPolicy = "default-src 'none'; style-src 'unsafe-inline'; script-src 'unsafe-inline'; connect-src 'self'"

// documentData feeds ui/index.html.
type documentData struct {
	Title      string
	ThemeCSS   template.CSS
	SocketPath string
}

// RenderDocument writes the panel document. socketPath is the URL path
// of the panel's message channel.
func RenderDocument(w io.Writer, theme *styles.Theme, socketPath string) error {
	return document.Execute(w, documentData{
		Title:      Title,
		ThemeCSS:   template.CSS(theme.RootCSS()),
		SocketPath: socketPath,
	})
}
