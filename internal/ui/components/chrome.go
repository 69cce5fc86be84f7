// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/darty-tutor/darty/internal/layout"
)

// Bar draws a single line width columns wide with start at the reading
// start (left for LTR, right for RTL) and end at the opposite edge.
func Bar(style lipgloss.Style, width int, dir layout.Direction, start, end string) string {
	if width <= 0 {
		return ""
	}
	if dir == layout.RTL {
		start, end = end, start
	}
	inner := width - style.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(start) - lipgloss.Width(end)
	if gap < 1 {
		gap = 1
	}
	w := width - style.GetHorizontalBorderSize()
	if w < 1 {
		w = 1
	}
	return style.Width(w).MaxWidth(width).MaxHeight(1).
		Render(start + strings.Repeat(" ", gap) + end)
}

// KeyHint is one entry of the help line.
type KeyHint struct {
	Key  string
	Desc string
}

// Hints joins key hints into one line.
func Hints(keyStyle, descStyle lipgloss.Style, hints []KeyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyStyle.Render(h.Key)+" "+descStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// Clean drops control characters other than newline and tab so message
// text cannot inject terminal escape sequences.
func Clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
