// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme names accepted by NewTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Speaker classes, shared by the browser stylesheet and the terminal.
const (
	ClassUser      = "message-user"
	ClassAssistant = "message-assistant"
)

// Theme resolves the adaptive palette to one variant. The same theme drives
// the panel stylesheet and the terminal surface so both look alike.
type Theme struct {
	Name   string
	IsDark bool

	// ==========================================================================
	// TERMINAL STYLES
	// ==========================================================================

	Title           lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	PlainEntry      lipgloss.Style
	Hint            lipgloss.Style
	StatusOK        lipgloss.Style
	StatusError     lipgloss.Style
}

// NewTheme returns the theme for name. Anything but "light" is dark.
func NewTheme(name string) *Theme {
	t := &Theme{Name: ThemeDark, IsDark: true}
	if strings.EqualFold(name, ThemeLight) {
		t.Name = ThemeLight
		t.IsDark = false
	}
	t.initStyles()
	return t
}

// Color picks the variant of c that matches the theme.
func (t *Theme) Color(c lipgloss.AdaptiveColor) lipgloss.Color {
	if t.IsDark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

func (t *Theme) initStyles() {
	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Color(Purple))

	t.UserBubble = lipgloss.NewStyle().
		Foreground(t.Color(UserBubbleFg)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Color(UserBubbleBorder)).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(t.Color(AssistantBubbleFg)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Color(AssistantBubbleBorder)).
		Padding(0, 1)

	t.PlainEntry = lipgloss.NewStyle().
		Foreground(t.Color(TextPrimary)).
		Padding(0, 1)

	t.Hint = lipgloss.NewStyle().
		Foreground(t.Color(TextMuted)).
		Italic(true)

	t.StatusOK = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Color(Emerald))

	t.StatusError = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Color(Rose))
}

// EntryStyle returns the terminal style for a speaker class.
func (t *Theme) EntryStyle(class string) lipgloss.Style {
	switch class {
	case ClassUser:
		return t.UserBubble
	case ClassAssistant:
		return t.AssistantBubble
	default:
		return t.PlainEntry
	}
}

// =============================================================================
// STYLESHEET
// =============================================================================

// CSSVar is one custom property of the panel stylesheet.
type CSSVar struct {
	Name  string
	Value string
}

// CSSVars lists the custom properties the panel document reads, in a
// stable order.
func (t *Theme) CSSVars() []CSSVar {
	pick := func(c lipgloss.AdaptiveColor) string { return string(t.Color(c)) }
	return []CSSVar{
		{"surface", pick(Surface)},
		{"surface-dim", pick(SurfaceDim)},
		{"overlay", pick(Overlay)},
		{"text", pick(TextPrimary)},
		{"text-muted", pick(TextMuted)},
		{"text-inverse", pick(TextInverse)},
		{"accent", pick(Cyan)},
		{"title", pick(Purple)},
		{"user-bg", pick(UserBubbleBg)},
		{"user-fg", pick(UserBubbleFg)},
		{"user-border", pick(UserBubbleBorder)},
		{"assistant-bg", pick(AssistantBubbleBg)},
		{"assistant-fg", pick(AssistantBubbleFg)},
		{"assistant-border", pick(AssistantBubbleBorder)},
	}
}

// RootCSS renders CSSVars as a ":root" rule.
func (t *Theme) RootCSS() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, v := range t.CSSVars() {
		fmt.Fprintf(&b, "  --%s: %s;\n", v.Name, v.Value)
	}
	b.WriteString("}\n")
	return b.String()
}
