// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/ui/styles"
)

// Labels are the translated strings the conversation pane shows.
type Labels struct {
	You         string
	Tutor       string
	Welcome     string
	WelcomeHint string
	Typing      string
}

// Conversation draws the message pane.
type Conversation struct {
	Theme *styles.Theme
	Width int
	// Direction is the content direction, not the chrome direction.
	Direction layout.Direction
	Labels    Labels
	CopyState func(blockID string) (label string, copied bool)
}

// Render draws entries. With no entries and no typing indicator the
// welcome placeholder is shown. spinner is the current spinner frame.
func (v Conversation) Render(entries []controller.Entry, typing bool, spinner string) Rendered {
	c := newCanvas()
	th := v.Theme

	if len(entries) == 0 && !typing {
		c.blank()
		c.add(th.Welcome.Width(v.Width).Render(v.Labels.Welcome))
		c.blank()
		c.add(th.WelcomeHint.Width(v.Width).Render(v.Labels.WelcomeHint))
		return c.result()
	}

	for i, e := range entries {
		if i > 0 {
			c.blank()
		}
		v.entry(c, e)
	}

	if typing {
		if len(entries) > 0 {
			c.blank()
		}
		line := th.Spinner.Render(spinner) + " " + th.TypingText.Render(v.Labels.Typing)
		c.add(v.prose(lipgloss.NewStyle(), line))
	}
	return c.result()
}

func (v Conversation) entry(c *canvas, e controller.Entry) {
	th := v.Theme
	m := e.Message
	m.Content = Clean(m.Content)

	switch {
	case m.Kind == session.KindError:
		c.add(v.prose(th.ErrorText, m.Content))
	case m.Kind == session.KindNotice:
		c.add(v.prose(th.NoticeText, m.Content))
	case m.Sender == session.SenderUser:
		c.add(v.prose(lipgloss.NewStyle(), th.UserLabel.Render(v.Labels.You)))
		c.add(v.prose(th.UserText, m.Content))
	default:
		c.add(v.prose(lipgloss.NewStyle(), th.AssistantLabel.Render(v.Labels.Tutor)))
		if e.Doc == nil {
			c.add(v.prose(th.AssistantText, m.Content))
			return
		}
		DocumentRenderer{
			Theme:     th,
			Width:     v.Width,
			Direction: v.Direction,
			CopyState: v.CopyState,
		}.draw(c, e.Doc)
	}
}

func (v Conversation) prose(style lipgloss.Style, text string) string {
	return align(style, v.Width, v.Direction).Render(text)
}
