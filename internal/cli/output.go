// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/ui/components"
)

// printer writes conversation entries to a line-oriented stream. When
// markdown is set, normal tutor replies go through glamour; otherwise
// they are written as received.
type printer struct {
	out      io.Writer
	markdown bool
	theme    layout.Theme
	width    int
	t        func(layout.Key) string

	md *glamour.TermRenderer
}

func newPrinter(out io.Writer, markdown bool, lay *layout.Controller) *printer {
	p := &printer{
		out:      out,
		markdown: markdown,
		theme:    layout.Light,
		width:    DefaultTerminalWidth,
		t:        func(k layout.Key) string { return layout.Translate(layout.English, k) },
	}
	if lay != nil {
		p.theme = lay.Theme()
		p.t = lay.T
	}
	if markdown {
		p.width = wrapWidth()
	}
	return p
}

// renderMarkdown formats text for the terminal, falling back to the
// plain text if glamour fails.
func (p *printer) renderMarkdown(text string) string {
	text = components.Clean(text)
	if !p.markdown {
		return text
	}
	if p.md == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(string(p.theme)),
			glamour.WithWordWrap(p.width),
		)
		if err != nil {
			logger.Get().Warn("markdown renderer unavailable", "error", err)
			p.markdown = false
			return text
		}
		p.md = r
	}
	out, err := p.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// entry prints one conversation entry with its sender label.
func (p *printer) entry(e controller.Entry) {
	m := e.Message
	text := components.Clean(m.Content)
	switch {
	case m.Sender == session.SenderUser:
		fmt.Fprintf(p.out, "%s %s\n", UserStyle.Render(p.t(layout.KeyYou)+":"), text)
	case m.Kind == session.KindError:
		fmt.Fprintln(p.out, ErrorStyle.Render(text))
	case m.Kind == session.KindNotice:
		fmt.Fprintln(p.out, WarningStyle.Render(text))
	default:
		fmt.Fprintln(p.out, TutorStyle.Render(p.t(layout.KeyTutor)+":"))
		fmt.Fprintln(p.out, p.renderMarkdown(m.Content))
	}
}

// reply prints an answer without a label, as ask does.
func (p *printer) reply(text string) {
	fmt.Fprintln(p.out, p.renderMarkdown(text))
}

func (p *printer) notice(text string) {
	fmt.Fprintln(p.out, DimStyle.Render(components.Clean(text)))
}

// writeJSON writes v indented.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
