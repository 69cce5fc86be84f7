// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/darty-tutor/darty/internal/layout"
)

// Palette is the set of colours one theme uses.
type Palette struct {
	Surface    lipgloss.Color
	SurfaceDim lipgloss.Color
	Overlay    lipgloss.Color

	Text      lipgloss.Color
	TextMuted lipgloss.Color
	TextFaint lipgloss.Color

	Accent     lipgloss.Color
	AccentSoft lipgloss.Color

	UserBg      lipgloss.Color
	UserFg      lipgloss.Color
	AssistantFg lipgloss.Color

	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color

	// CodeStyle names the chroma style used for fenced code.
	CodeStyle string
}

// =============================================================================
// PALETTES
// =============================================================================

// LightPalette is used for layout.Light.
var LightPalette = Palette{
	Surface:    "#FFFFFF",
	SurfaceDim: "#F3F4F6",
	Overlay:    "#D1D5DB",

	Text:      "#1F2937",
	TextMuted: "#6B7280",
	TextFaint: "#9CA3AF",

	Accent:     "#0E7490",
	AccentSoft: "#CFFAFE",

	UserBg:      "#DBEAFE",
	UserFg:      "#1E3A8A",
	AssistantFg: "#111827",

	Error:   "#BE123C",
	Success: "#047857",
	Warning: "#B45309",

	CodeStyle: "github",
}

// DarkPalette is used for layout.Dark.
var DarkPalette = Palette{
	Surface:    "#1E1E2E",
	SurfaceDim: "#181825",
	Overlay:    "#45475A",

	Text:      "#CDD6F4",
	TextMuted: "#A6ADC8",
	TextFaint: "#6C7086",

	Accent:     "#22D3EE",
	AccentSoft: "#164E63",

	UserBg:      "#1D4ED8",
	UserFg:      "#E0F2FE",
	AssistantFg: "#CDD6F4",

	Error:   "#FB7185",
	Success: "#34D399",
	Warning: "#FBBF24",

	CodeStyle: "monokai",
}

// PaletteFor returns the palette of theme. Unknown themes get the light one.
func PaletteFor(theme layout.Theme) Palette {
	if theme == layout.Dark {
		return DarkPalette
	}
	return LightPalette
}
