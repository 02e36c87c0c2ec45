// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package panel implements the chat display surface: a panel session with its
own transcript, the message envelope shared with the surface, and the
embedded HTML document.

# Key Types

  - Panel: one chat session. Inbound messages queue up and are handled by a
    single worker goroutine, so replies are posted in the order the user
    sent them and only one service call is in flight at a time.
  - View: where outbound messages go. The HTTP server attaches a WebSocket
    view, the terminal attaches a printing view.
  - Manager: opens, tracks and closes panels. Every panel gets a fresh
    relay.Relay.
  - Message: the {command, text} envelope.

# Usage

	m := panel.NewManager(client, panel.ManagerConfig{Model: "llama3"})
	p, _ := m.Open(ctx)
	detach, _ := p.Attach(panel.ViewFunc(func(msg panel.Message) error {
		fmt.Println(msg.Text) // "User: Hello", then "Assistant: ..."
		return nil
	}))
	defer detach()
	p.Receive(panel.SendMessage("Hello"))
*/
package panel
