// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/ui/styles"
	"github.com/darty-tutor/darty/internal/util"
)

// sidebarHeader is the number of rows above the first session: the title
// and the search line.
const sidebarHeader = 2

// Sidebar draws the session panel. Width is the panel's visible width,
// including the one-column resize handle on its inner edge.
type Sidebar struct {
	Theme  *styles.Theme
	Width  int
	Height int

	Title      string
	SearchHint string
	Query      string
	Searching  bool
	Sessions   []session.Session
	ActiveID   string
	Cursor     int
	Side       layout.Side
	Direction  layout.Direction
	Collapsed  bool
	Dragging   bool
}

// offset is the index of the first visible session.
func (s Sidebar) offset() int {
	rows := s.Height - sidebarHeader
	if rows < 1 || s.Cursor < rows {
		return 0
	}
	return s.Cursor - rows + 1
}

// ItemAt maps row y of the panel to a session index.
func (s Sidebar) ItemAt(y int) (int, bool) {
	if s.Collapsed || y < sidebarHeader || y >= s.Height {
		return 0, false
	}
	i := s.offset() + y - sidebarHeader
	if i < 0 || i >= len(s.Sessions) {
		return 0, false
	}
	return i, true
}

// View draws the panel Height rows tall.
func (s Sidebar) View() string {
	if s.Width <= 1 || s.Height <= 0 {
		return ""
	}
	th := s.Theme
	inner := s.Width - 1

	var rows []string
	if s.Collapsed {
		rows = s.rail(inner)
	} else {
		rows = s.list(inner)
	}
	for len(rows) < s.Height {
		rows = append(rows, "")
	}
	rows = rows[:s.Height]

	handleStyle := th.PanelHandle
	if s.Dragging {
		handleStyle = th.PanelHandleDrag
	}
	handle := handleStyle.Render("│")
	body := th.Panel.Width(inner)

	out := make([]string, len(rows))
	for i, row := range rows {
		cell := body.Render(row)
		if s.Side == layout.Right {
			out[i] = handle + cell
		} else {
			out[i] = cell + handle
		}
	}
	return strings.Join(out, "\n")
}

func (s Sidebar) rail(inner int) []string {
	arrow := "»"
	if s.Side == layout.Right {
		arrow = "«"
	}
	return []string{
		s.Theme.Rail.Render(util.FitWidth(arrow, inner)),
		s.Theme.Rail.Render(util.FitWidth(strconv.Itoa(len(s.Sessions)), inner)),
	}
}

func (s Sidebar) list(inner int) []string {
	th := s.Theme
	rows := []string{
		s.line(th.PanelTitle, inner, util.FitWidth(s.Title, inner)),
		s.line(th.PanelSearch, inner, s.searchLine(inner)),
	}

	start := s.offset()
	for i := start; i < len(s.Sessions); i++ {
		sess := s.Sessions[i]
		marker := "  "
		if i == s.Cursor {
			marker = "› "
			if s.Direction == layout.RTL {
				marker = "‹ "
			}
		}
		title := util.FitWidth(Clean(sess.Title), inner-2)
		style := th.PanelItem
		if sess.ID == s.ActiveID {
			style = th.PanelItemActive
		}
		text := marker + title
		if s.Direction == layout.RTL {
			text = title + " " + strings.TrimSpace(marker)
		}
		rows = append(rows, s.line(style, inner, text))
	}
	return rows
}

func (s Sidebar) searchLine(inner int) string {
	if s.Searching || s.Query != "" {
		cursor := ""
		if s.Searching {
			cursor = "▏"
		}
		return util.FitWidth("/ "+Clean(s.Query)+cursor, inner)
	}
	return util.FitWidth("/ "+s.SearchHint, inner)
}

// line pads text to inner columns on the reading-end side.
func (s Sidebar) line(style lipgloss.Style, inner int, text string) string {
	if s.Direction == layout.RTL {
		return style.Render(util.PadStart(text, inner))
	}
	return style.Width(inner).Render(text)
}
