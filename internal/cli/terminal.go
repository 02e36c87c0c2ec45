// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Widths used when laying out the terminal chat.
const (
	fallbackWidth = 80
	minWidth      = 40
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of f, fallbackWidth when it is not
// a terminal, and never less than minWidth.
func TerminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		w = 0
	}
	return clampWidth(w)
}

func clampWidth(w int) int {
	switch {
	case w <= 0:
		return fallbackWidth
	case w < minWidth:
		return minWidth
	}
	return w
}

// ColorProfile picks the termenv profile for f. NO_COLOR (https://no-color.org)
// forces plain output and FORCE_COLOR enables colour on pipes.
func ColorProfile(f *os.File) termenv.Profile {
	if !colorsFromEnv(os.Getenv("NO_COLOR"), os.Getenv("FORCE_COLOR"), IsTerminal(f)) {
		return termenv.Ascii
	}
	if p := termenv.NewOutput(f).Profile; p != termenv.Ascii {
		return p
	}
	// Forced on a pipe: termenv sees no terminal, so assume 256 colours.
	return termenv.ANSI256
}

func colorsFromEnv(noColor, forceColor string, tty bool) bool {
	if noColor != "" {
		return false
	}
	if forceColor != "" {
		return true
	}
	return tty
}
