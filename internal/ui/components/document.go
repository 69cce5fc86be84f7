// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/ui/styles"
)

// Rendered is drawn text plus the lines that carry copy controls.
type Rendered struct {
	Text string
	// Buttons maps a zero-based line of Text to the code block whose copy
	// control is drawn on it.
	Buttons map[int]string
}

// Lines is the number of lines in Text.
func (r Rendered) Lines() int {
	if r.Text == "" {
		return 0
	}
	return strings.Count(r.Text, "\n") + 1
}

// canvas accumulates lines and remembers button positions.
type canvas struct {
	lines   []string
	buttons map[int]string
}

func newCanvas() *canvas {
	return &canvas{buttons: make(map[int]string)}
}

func (c *canvas) add(s string) {
	c.lines = append(c.lines, strings.Split(s, "\n")...)
}

func (c *canvas) addButton(s, blockID string) {
	c.buttons[len(c.lines)] = blockID
	c.add(s)
}

func (c *canvas) blank() {
	c.lines = append(c.lines, "")
}

func (c *canvas) result() Rendered {
	return Rendered{Text: strings.Join(c.lines, "\n"), Buttons: c.buttons}
}

// =============================================================================
// DOCUMENT RENDERER
// =============================================================================

// DocumentRenderer draws a formatted reply.
type DocumentRenderer struct {
	Theme     *styles.Theme
	Width     int
	Direction layout.Direction
	// CopyState returns the label of a block's copy control and whether
	// the block was just copied. Nil means render.DefaultCopyLabel.
	CopyState func(blockID string) (label string, copied bool)
}

// Render draws doc on its own.
func (r DocumentRenderer) Render(doc *render.Document) Rendered {
	c := newCanvas()
	r.draw(c, doc)
	return c.result()
}

func (r DocumentRenderer) draw(c *canvas, doc *render.Document) {
	th := r.Theme
	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		if i > 0 {
			c.blank()
		}
		switch b.Kind {
		case render.BlockHeading:
			prefix := strings.Repeat("#", b.Level) + " "
			c.add(r.prose(th.Heading, prefix+r.inlines(b.Inlines)))
		case render.BlockList:
			for _, item := range b.Items {
				c.add(r.bullet(item))
			}
		case render.BlockCode:
			r.code(c, b)
		default:
			c.add(r.prose(th.AssistantText, r.inlines(b.Inlines)))
		}
	}
}

func (r DocumentRenderer) bullet(item []render.Inline) string {
	mark := r.Theme.Bullet.Render("•")
	text := r.inlines(item)
	width := r.Width - 2
	if width < 1 {
		width = 1
	}
	if r.Direction == layout.RTL {
		body := r.Theme.AssistantText.Width(width).Align(lipgloss.Right).Render(text)
		return lipgloss.JoinHorizontal(lipgloss.Top, body, " "+mark)
	}
	body := r.Theme.AssistantText.Width(width).Render(text)
	return lipgloss.JoinHorizontal(lipgloss.Top, mark+" ", body)
}

// code draws a header line holding the language and copy control, then
// the highlighted body. Code is always laid out left to right.
func (r DocumentRenderer) code(c *canvas, b *render.Block) {
	th := r.Theme
	label, copied := render.DefaultCopyLabel, false
	if r.CopyState != nil {
		label, copied = r.CopyState(b.ID)
	}
	button := th.CopyButton.Render("[" + label + "]")
	if copied {
		button = th.CopyDone.Render("[" + label + "]")
	}

	lang := ""
	if b.Lang != "" {
		lang = th.CodeLang.Render(Clean(b.Lang))
	}
	c.addButton(Bar(lipgloss.NewStyle(), r.Width, layout.LTR, lang, button), b.ID)

	body := Highlight(Clean(b.Code), b.Lang, th.Palette.CodeStyle, th.CodeFormatter())
	width := r.Width - th.CodeBlock.GetHorizontalBorderSize()
	if width < 1 {
		width = 1
	}
	c.add(th.CodeBlock.Width(width).Render(body))
}

// inlines flattens a run into styled text. Breaks become newlines.
func (r DocumentRenderer) inlines(in []render.Inline) string {
	var sb strings.Builder
	for _, n := range in {
		switch n.Kind {
		case render.InlineBold:
			sb.WriteString(r.Theme.Bold.Render(Clean(render.PlainText(n.Children))))
		case render.InlineCode:
			sb.WriteString(r.Theme.InlineCode.Render(Clean(n.Text)))
		case render.InlineBreak:
			sb.WriteByte('\n')
		default:
			sb.WriteString(Clean(n.Text))
		}
	}
	return sb.String()
}

func (r DocumentRenderer) prose(style lipgloss.Style, text string) string {
	return align(style, r.Width, r.Direction).Render(text)
}

// align sizes style to width columns, border included, and right-aligns it
// for right-to-left text.
func align(style lipgloss.Style, width int, dir layout.Direction) lipgloss.Style {
	w := width - style.GetHorizontalBorderSize()
	if w < 1 {
		w = 1
	}
	style = style.Width(w)
	if dir == layout.RTL {
		style = style.Align(lipgloss.Right)
	}
	return style
}
