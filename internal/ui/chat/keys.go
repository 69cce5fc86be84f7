// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the chat screen.
type KeyMap struct {
	Send          key.Binding
	Stop          key.Binding
	NewChat       key.Binding
	TogglePanel   key.Binding
	FocusPanel    key.Binding
	ToggleLang    key.Binding
	ToggleTheme   key.Binding
	CopyCode      key.Binding
	Export        key.Binding
	SyncDocs      key.Binding
	ClearCache    key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Quit          key.Binding
	PanelUp       key.Binding
	PanelDown     key.Binding
	PanelOpen     key.Binding
	PanelDelete   key.Binding
	PanelRename   key.Binding
	PanelSearch   key.Binding
	PanelNarrower key.Binding
	PanelWider    key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "stop"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		TogglePanel: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "toggle panel"),
		),
		FocusPanel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "chats"),
		),
		ToggleLang: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "language"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),
		CopyCode: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy last code block"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export chat"),
		),
		SyncDocs: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "sync docs"),
		),
		ClearCache: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "clear cache"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
		PanelUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous"),
		),
		PanelDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next"),
		),
		PanelOpen: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open"),
		),
		PanelDelete: key.NewBinding(
			key.WithKeys("delete", "d"),
			key.WithHelp("d", "delete"),
		),
		PanelRename: key.NewBinding(
			key.WithKeys("f2", "r"),
			key.WithHelp("r", "rename"),
		),
		PanelSearch: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		PanelNarrower: key.NewBinding(
			key.WithKeys("<", "ctrl+left"),
			key.WithHelp("<", "narrower"),
		),
		PanelWider: key.NewBinding(
			key.WithKeys(">", "ctrl+right"),
			key.WithHelp(">", "wider"),
		),
	}
}

// PanelHelp returns the bindings shown while the session panel has focus.
func (k KeyMap) PanelHelp() []key.Binding {
	return []key.Binding{k.PanelOpen, k.PanelRename, k.PanelDelete, k.PanelSearch, k.PanelNarrower, k.PanelWider, k.FocusPanel}
}
