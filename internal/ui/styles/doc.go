// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the two colour palettes of the darty TUI and the
// lipgloss styles built from them.
//
// The palette is chosen by the persisted theme preference rather than by
// terminal background detection, so every colour is a plain lipgloss.Color.
//
// # Key Types
//
//   - Palette: the named colours of one theme
//   - Theme: lipgloss styles for every part of the screen
//
// # Usage
//
//	th := styles.NewTheme(layout.Dark)
//	fmt.Println(th.Title.Render("darty"))
package styles
