// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// open.go - Open command implementation.
//
// Command: open
// Short:   Open a chat panel on a running host and print its URL

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/chatpanel/internal/extension"
	"github.com/jeranaias/chatpanel/internal/server"
)

// OpenPanel executes the startChat command on the host at baseURL.
func OpenPanel(ctx context.Context, client *http.Client, baseURL string) (server.OpenedPanel, error) {
	var opened server.OpenedPanel

	url := strings.TrimRight(baseURL, "/") + "/commands/" + extension.StartChatCommand
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return opened, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return opened, fmt.Errorf("host not reachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Error.Message != "" {
			return opened, fmt.Errorf("open panel: %s", body.Error.Message)
		}
		return opened, fmt.Errorf("open panel: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&opened); err != nil {
		return opened, fmt.Errorf("decode response: %w", err)
	}
	return opened, nil
}
