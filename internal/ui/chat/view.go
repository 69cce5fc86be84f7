// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/ui/components"
)

// View renders the screen.
func (m *Model) View() string {
	if !m.ready {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.bodyView(),
		m.inputView(),
		m.statusView(),
	)
}

func (m *Model) headerView() string {
	th := m.theme
	title := th.Title.Render(m.layout.T(layout.KeyAppTitle))

	var badge string
	switch {
	case m.status == nil:
	case m.status.Ready():
		badge = th.StatusOK.Render("● " + m.layout.T(layout.KeyStatusReady))
	default:
		badge = th.StatusBad.Render("○ " + m.layout.T(layout.KeyStatusNotReady))
	}
	return components.Bar(th.Header, m.width, m.layout.ChromeDirection(), title, badge)
}

func (m *Model) bodyView() string {
	h := m.bodyHeight()
	conv := lipgloss.NewStyle().
		Width(m.convWidth()).
		Height(h).
		MaxHeight(h).
		Render(m.viewport.View())
	panel := m.sidebar().View()
	if panel == "" {
		return conv
	}
	if m.panel.Side() == layout.Right {
		return lipgloss.JoinHorizontal(lipgloss.Top, conv, panel)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panel, conv)
}

// buttonView is the send or stop control next to the input.
func (m *Model) buttonView() string {
	th := m.theme
	if m.stopVisible {
		label := m.layout.T(layout.KeyStop)
		if m.progress {
			label = m.spinner.View() + " " + label
		}
		return th.StopButton.Render(label)
	}
	if !m.sendEnabled {
		return th.HelpDesc.Padding(0, 1).Render(m.layout.T(layout.KeySend))
	}
	return th.SendButton.Render(m.layout.T(layout.KeySend))
}

func (m *Model) inputView() string {
	th := m.theme
	box := th.Input
	if !m.sendEnabled || m.focus != focusInput {
		box = th.InputDisabled
	}
	button := m.buttonView()
	w := m.width - lipgloss.Width(button) - 1 - box.GetHorizontalBorderSize()
	if w < 1 {
		w = 1
	}
	field := box.Width(w).Render(m.input.View())
	// Center the one-line button against the three-line box.
	button = "\n" + button
	if m.layout.ChromeDirection() == layout.RTL {
		return lipgloss.JoinHorizontal(lipgloss.Top, button, " ", field)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, field, " ", button)
}

func (m *Model) statusView() string {
	th := m.theme
	dir := m.layout.ChromeDirection()

	var start string
	switch {
	case m.focus == focusRename:
		start = th.HelpKey.Render(m.layout.T(layout.KeyRename)+":") + " " + m.rename.View()
	case m.notice != "":
		start = th.Notice.Render(components.Clean(m.notice))
	case m.focus == focusPanel || m.focus == focusSearch:
		start = m.hints(m.keys.PanelHelp())
	default:
		start = th.HelpDesc.Render(m.layout.T(layout.KeyHelp))
	}

	var end string
	if m.syncing {
		end = th.Spinner.Render(m.spinner.View())
	}
	return components.Bar(th.StatusBar, m.width, dir, start, end)
}

func (m *Model) hints(bindings []key.Binding) string {
	hints := make([]components.KeyHint, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, components.KeyHint{Key: h.Key, Desc: h.Desc})
	}
	out := components.Hints(m.theme.HelpKey, m.theme.HelpDesc, hints)
	return strings.TrimSpace(out)
}
