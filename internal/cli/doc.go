// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the terminal side of the chatpanel commands.
//
// # Commands
//
//   - chat: a terminal display surface for one panel (RunChat)
//   - status: chat service reachability and installed models (RunStatus)
//   - open: asks a running host to open a panel (OpenPanel)
//
// Command wiring (flags, config, logger) lives in package main; this package
// takes its dependencies as arguments so it can be tested without a
// terminal.
package cli
