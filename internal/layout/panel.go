// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

// RailWidth is the width of the collapsed, icon-only panel.
const RailWidth = 4

// PanelBounds limit the panel width, in terminal columns.
type PanelBounds struct {
	Min           int
	Max           int
	CollapseBelow int
}

// DefaultPanelBounds returns the stock bounds.
func DefaultPanelBounds() PanelBounds {
	return PanelBounds{Min: 18, Max: 48, CollapseBelow: 14}
}

// normalize repairs inconsistent bounds from configuration.
func (b PanelBounds) normalize() PanelBounds {
	d := DefaultPanelBounds()
	if b.Min <= 0 {
		b.Min = d.Min
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}
	if b.CollapseBelow < 0 || b.CollapseBelow > b.Min {
		b.CollapseBelow = b.Min
	}
	return b
}

// Panel is the resizable session list.
//
// A drag is explicit: BeginDrag, any number of Track calls, EndDrag. While
// Dragging reports true the host listens for pointer motion; it stops
// listening on EndDrag, which it calls on any release.
type Panel struct {
	bounds    PanelBounds
	side      Side
	width     int
	collapsed bool
	dragging  bool
}

// NewPanel returns an expanded panel docked on side.
func NewPanel(bounds PanelBounds, width int, side Side) *Panel {
	p := &Panel{bounds: bounds.normalize(), side: side}
	p.width = p.clamp(width)
	return p
}

// Bounds returns the effective bounds.
func (p *Panel) Bounds() PanelBounds { return p.bounds }

// Side returns the docking edge.
func (p *Panel) Side() Side { return p.side }

// SetSide re-docks the panel. Width is kept.
func (p *Panel) SetSide(side Side) { p.side = side }

// Width is the expanded width, remembered while collapsed.
func (p *Panel) Width() int { return p.width }

// Collapsed reports whether the panel shows only the rail.
func (p *Panel) Collapsed() bool { return p.collapsed }

// VisibleWidth is the number of columns the panel occupies now.
func (p *Panel) VisibleWidth() int {
	if p.collapsed {
		return RailWidth
	}
	return p.width
}

// Dragging reports whether a drag is in progress.
func (p *Panel) Dragging() bool { return p.dragging }

// OnHandle reports whether column x is the panel's resize edge within a
// container containerWidth columns wide.
func (p *Panel) OnHandle(x, containerWidth int) bool {
	if p.side == Right {
		return x == containerWidth-p.VisibleWidth()
	}
	return x == p.VisibleWidth()-1
}

// BeginDrag starts a drag at column x. It reports false if one is already
// in progress.
func (p *Panel) BeginDrag(x int) bool {
	if p.dragging {
		return false
	}
	p.dragging = true
	return true
}

// Track moves the edge to column x. Width is measured from the docking
// edge: x+1 when docked left, containerWidth-x when docked right. It
// reports whether the visible width changed.
func (p *Panel) Track(x, containerWidth int) bool {
	if !p.dragging {
		return false
	}
	before := p.VisibleWidth()

	raw := x + 1
	if p.side == Right {
		raw = containerWidth - x
	}
	if raw < p.bounds.CollapseBelow {
		p.collapsed = true
	} else {
		p.collapsed = false
		p.width = p.clamp(raw)
	}
	return p.VisibleWidth() != before
}

// EndDrag finishes the drag. Safe to call when none is in progress.
func (p *Panel) EndDrag() {
	p.dragging = false
}

// Toggle collapses or expands the panel from the keyboard.
func (p *Panel) Toggle() {
	p.collapsed = !p.collapsed
}

// Resize changes the expanded width by delta columns, within bounds. A
// collapsed panel is expanded first. It reports whether the visible width
// changed.
func (p *Panel) Resize(delta int) bool {
	before := p.VisibleWidth()
	p.collapsed = false
	p.width = p.clamp(p.width + delta)
	return p.VisibleWidth() != before
}

func (p *Panel) clamp(w int) int {
	if w < p.bounds.Min {
		return p.bounds.Min
	}
	if w > p.bounds.Max {
		return p.bounds.Max
	}
	return w
}
