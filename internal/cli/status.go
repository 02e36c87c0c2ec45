// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation.
//
// Command: status
// Short:   Check the chat service and list its models
//
// Output Fields:
//   Service    Chat service URL and whether it answers
//   Model      Configured model and whether it is installed
//   Models     Installed models
//   Server     Address the HTTP host listens on

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatpanel/internal/config"
	"github.com/jeranaias/chatpanel/internal/ollama"
	"github.com/jeranaias/chatpanel/internal/ui/styles"
)

// ServiceProbe is what status needs from the chat service client.
type ServiceProbe interface {
	BaseURL() string
	CheckRunning(ctx context.Context) error
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// statusTimeout bounds each probe.
const statusTimeout = 5 * time.Second

// RunStatus prints the chat service status. It only returns write errors;
// an unreachable service is reported, not failed.
func RunStatus(ctx context.Context, probe ServiceProbe, cfg *config.Config, theme *styles.Theme, out io.Writer) error {
	label := lipgloss.NewStyle().Foreground(theme.Color(styles.TextMuted)).Width(10)
	value := lipgloss.NewStyle().Foreground(theme.Color(styles.TextPrimary))

	row := func(name, v string) {
		fmt.Fprintln(out, label.Render(name)+" "+v)
	}

	fmt.Fprintln(out, theme.Title.Render("chatpanel status"))

	probeCtx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	if err := probe.CheckRunning(probeCtx); err != nil {
		row("Service", value.Render(probe.BaseURL())+" "+theme.StatusError.Render("[X] unreachable"))
		row("Model", value.Render(cfg.Local.Model))
		row("Server", value.Render(cfg.Server.BaseURL()))
		return nil
	}
	row("Service", value.Render(probe.BaseURL())+" "+theme.StatusOK.Render("[OK] running"))

	models, err := probe.ListModels(probeCtx)
	if err != nil {
		row("Model", value.Render(cfg.Local.Model))
		row("Models", theme.StatusError.Render("could not list models"))
		row("Server", value.Render(cfg.Server.BaseURL()))
		return nil
	}

	marker := theme.StatusError.Render("[!] not installed")
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
		if modelMatches(m.Name, cfg.Local.Model) {
			marker = theme.StatusOK.Render("[OK] installed")
		}
	}
	row("Model", value.Render(cfg.Local.Model)+" "+marker)
	if len(names) == 0 {
		row("Models", theme.Hint.Render("none"))
	} else {
		row("Models", value.Render(strings.Join(names, ", ")))
	}
	row("Server", value.Render(cfg.Server.BaseURL()))
	return nil
}

// modelMatches treats "llama3" and "llama3:latest" as the same model.
func modelMatches(installed, configured string) bool {
	if installed == configured {
		return true
	}
	if !strings.Contains(configured, ":") {
		return installed == configured+":latest"
	}
	return false
}
