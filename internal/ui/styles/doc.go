// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the color palette shared by the chat panel's two
surfaces: the browser document and the terminal.

# Color System (colors.go)

All colors are Lip Gloss AdaptiveColor values with a light and a dark
variant. Message cards use semantic tokens:

	UserBubbleBg      - Background for user entries
	UserBubbleFg      - Text color for user entries
	AssistantBubbleBg - Background for assistant entries
	AssistantBubbleFg - Text color for assistant entries

# Theme (theme.go)

A Theme fixes one variant. It exposes Lip Gloss styles for the terminal
and the same colors as CSS custom properties for the panel document:

	theme := styles.NewTheme("dark")
	fmt.Println(theme.EntryStyle(styles.ClassUser).Render("User: Hello"))
	css := theme.RootCSS() // ":root { --surface: #1E1E2E; ... }"
*/
package styles
