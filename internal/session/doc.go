// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session closes chat panels that have been left without a view.
//
// A panel opened over HTTP lives until its socket closes or someone deletes
// it. A panel whose page was never loaded has no socket, so nothing would
// ever close it; the Reaper disposes such panels once they have been idle
// for the configured timeout.
//
// # Key Types
//
//   - Idler: what the reaper needs from a panel
//   - Reaper: periodic idle check
//
// # Usage
//
//	reaper := session.NewReaper(session.Config{Timeout: 15 * time.Minute}, list, logger)
//	g.Go(func() error { return reaper.Run(ctx) })
package session
