// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the chat surfaces.
//
//   - WriteAtomic, WriteFileAtomic: replace a file via temp file and rename
//   - Preview: one-line, width-bounded text for log fields
package util
