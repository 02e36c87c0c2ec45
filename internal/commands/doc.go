// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the host command registry.
//
// Extensions register invocable actions under a fixed identifier; the host
// (HTTP server, CLI) executes them by id.
//
// # Key Types
//
//   - Registry: Thread-safe map of command id to Command
//   - Command: Identifier, title and handler of one action
//   - Handler: Function run when the command is executed
//
// # Usage
//
//	reg := commands.NewRegistry()
//	d, err := reg.Register(&commands.Command{
//	    ID:      "extension.startChat",
//	    Title:   "Chat with AI",
//	    Handler: openPanel,
//	})
//	hctx.Push(d)
//
//	result, err := reg.Execute(ctx, "extension.startChat")
package commands
