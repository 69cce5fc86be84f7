// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended by the truncation helpers.
const Ellipsis = "..."

// EllipsizeRunes keeps the first limit runes of s and appends "..." when s
// is longer than limit. Strings of limit runes or fewer are returned as is.
//
//	EllipsizeRunes("what is a widget", 30) == "what is a widget"
//	EllipsizeRunes(strings.Repeat("a", 40), 30) == strings.Repeat("a", 30) + "..."
func EllipsizeRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + Ellipsis
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// FitWidth truncates s to at most width terminal columns, accounting for
// wide characters. The result never exceeds width, ellipsis included.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= len(Ellipsis) {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, Ellipsis)
}

// PadStart left-pads s with spaces to width columns. Used to align text
// against the right edge for right-to-left panes.
func PadStart(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return runewidth.FillLeft(s, width)
}
