// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Terminal display surface for a chat panel.
//
// Command: chat
// Short:   Chat with the model in the terminal
//
// The terminal plays the same role as the browser document: it attaches a
// view to a panel, posts sendMessage envelopes and prints every showResponse
// entry styled by its speaker prefix.
//
// Interactive Commands (during chat):
//   /quit, /q, exit     Exit chat
//   Ctrl+C, Ctrl+D      Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/chatpanel/internal/config"
	"github.com/jeranaias/chatpanel/internal/panel"
	"github.com/jeranaias/chatpanel/internal/ui/styles"
	"github.com/jeranaias/chatpanel/internal/util"
)

// Prompter reads one line of user input. *liner.State satisfies it.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineInput provides line editing and persistent history for chat input.
type LineInput struct {
	line        *liner.State
	historyFile string
}

// NewLineInput creates a LineInput and loads history from the config
// directory.
func NewLineInput() *LineInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeChatCommand)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &LineInput{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(in.historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return in
}

// Prompt reads a line and records non-empty input in the history.
func (in *LineInput) Prompt(prompt string) (string, error) {
	text, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		in.line.AppendHistory(text)
	}
	return text, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (in *LineInput) Close() {
	_ = util.WriteAtomic(in.historyFile, 0600, 0700, func(w io.Writer) error {
		_, err := in.line.WriteHistory(w)
		return err
	})
	in.line.Close()
}

// quitCommands end the chat when entered on their own.
var quitCommands = []string{"/quit", "/q", "exit", "quit"}

// completeChatCommand completes slash commands; plain text is a message and
// gets no completion.
func completeChatCommand(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, cmd := range quitCommands {
		if strings.HasPrefix(cmd, strings.ToLower(line)) {
			out = append(out, cmd)
		}
	}
	return out
}

// =============================================================================
// TERMINAL VIEW
// =============================================================================

// terminalView prints panel entries. Each assistant entry signals replies so
// the prompt is only shown again once the answer is on screen.
type terminalView struct {
	mu      sync.Mutex
	out     io.Writer
	theme   *styles.Theme
	width   int
	replies chan struct{}
}

func (v *terminalView) PostMessage(msg panel.Message) error {
	if msg.Command != panel.CommandShowResponse {
		return nil
	}
	class := panel.SpeakerClass(msg.Text)
	style := v.theme.EntryStyle(class)
	if v.width > 0 {
		style = style.Width(v.width)
	}

	v.mu.Lock()
	_, err := fmt.Fprintln(v.out, style.Render(msg.Text))
	v.mu.Unlock()

	if class == styles.ClassAssistant {
		select {
		case v.replies <- struct{}{}:
		default:
		}
	}
	return err
}

// =============================================================================
// CHAT LOOP
// =============================================================================

// ChatOptions configures RunChat.
type ChatOptions struct {
	Panels *panel.Manager
	Theme  *styles.Theme
	Input  Prompter
	Out    io.Writer

	// Width wraps entries; zero leaves them unwrapped
	Width int
}

// RunChat opens a panel and drives it from the terminal until the user
// quits, input ends or ctx is cancelled. The panel is closed on return.
func RunChat(ctx context.Context, opts ChatOptions) error {
	p, err := opts.Panels.Open(ctx)
	if err != nil {
		return fmt.Errorf("open panel: %w", err)
	}
	defer p.Dispose()

	view := &terminalView{
		out:     opts.Out,
		theme:   opts.Theme,
		width:   opts.Width,
		replies: make(chan struct{}, 1),
	}
	detach, err := p.Attach(view)
	if err != nil {
		return err
	}
	defer detach()

	fmt.Fprintln(opts.Out, opts.Theme.Title.Render(p.Title()))
	fmt.Fprintln(opts.Out, opts.Theme.Hint.Render("Type a message and press Enter. /quit to leave."))

	prompt := lipgloss.NewStyle().Foreground(opts.Theme.Color(styles.Cyan)).Bold(true).Render("> ")
	for {
		text, err := opts.Input.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(opts.Out)
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		if slices.Contains(quitCommands, trimmed) {
			return nil
		}

		if err := p.Receive(panel.SendMessage(text)); err != nil {
			return err
		}

		select {
		case <-view.replies:
		case <-p.Done():
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
