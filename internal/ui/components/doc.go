// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components draws the pieces of the darty TUI as strings.

Components are plain values configured with a *styles.Theme and a width.
They hold no Bubble Tea state; the app model owns input handling and calls
them from View.

# Core Components

Conversation (conversation.go) - the message pane, including the welcome
placeholder and the typing indicator.

DocumentRenderer (document.go) - terminal form of a render.Document, with
chroma-highlighted code blocks (codeblock.go) and copy controls.

Sidebar (sidebar.go) - the resizable session list, or its rail when
collapsed.

Bar (chrome.go) - one-line header and status bars that respect the chrome
direction.

# Hit Testing

Rendered output records which line carries which copy control, and the
Sidebar reports which session sits on a given row, so mouse clicks can be
mapped back without re-rendering.

	conv := components.Conversation{Theme: th, Width: 80, Direction: layout.RTL}
	out := conv.Render(entries, false, "")
	if id, ok := out.Buttons[line]; ok {
		tracker.Copy(id)
	}
*/
package components
