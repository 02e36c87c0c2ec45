// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders panel transcripts as Markdown, plain text or JSON.
//
// # Usage
//
//	exp, err := export.ForFormat("markdown", nil)
//	data, err := exp.Export(&export.Conversation{
//	    PanelID: p.ID(),
//	    Title:   p.Title(),
//	    Turns:   p.Transcript(),
//	})
package export
