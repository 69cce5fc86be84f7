// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the full-screen Bubble Tea interface of darty.
//
// Model implements controller.View, so the conversation controller drives
// the screen directly from inside Update. Remote calls run as tea.Cmds and
// come back as messages, which keeps every state change on the Bubble Tea
// goroutine.
//
// # Key Types
//
//   - Model: the tea.Model and controller.View
//   - Options: dependencies and start-up settings
//   - KeyMap: keyboard bindings
//
// # Usage
//
//	m := chat.New(chat.Options{Controller: ctrl, Layout: lay, Panel: panel})
//	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
//	_, err := p.Run()
package chat
