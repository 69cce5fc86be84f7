// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across darty.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - EllipsizeRunes: rune-based truncation that appends "..." past a limit
//   - FitWidth: display-width aware truncation for terminal columns
//
// # Usage
//
//	title := util.EllipsizeRunes(question, 30)
//	label := util.FitWidth(title, sidebarWidth)
//	err := util.AtomicWriteFile(path, data, 0o644)
package util
