// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/darty-tutor/darty/internal/layout"
)

// Theme holds every style the TUI draws with.
type Theme struct {
	Name    layout.Theme
	Palette Palette

	// ColorProfile is the terminal's colour capability. It picks the chroma
	// formatter for code blocks.
	ColorProfile termenv.Profile

	// ==========================================================================
	// CHROME
	// ==========================================================================

	Header     lipgloss.Style
	Title      lipgloss.Style
	StatusBar  lipgloss.Style
	StatusOK   lipgloss.Style
	StatusBad  lipgloss.Style
	Notice     lipgloss.Style
	HelpKey    lipgloss.Style
	HelpDesc   lipgloss.Style
	Spinner    lipgloss.Style
	TypingText lipgloss.Style

	// ==========================================================================
	// SESSION PANEL
	// ==========================================================================

	Panel           lipgloss.Style
	PanelTitle      lipgloss.Style
	PanelItem       lipgloss.Style
	PanelItemActive lipgloss.Style
	PanelSearch     lipgloss.Style
	PanelHandle     lipgloss.Style
	PanelHandleDrag lipgloss.Style
	Rail            lipgloss.Style

	// ==========================================================================
	// CONVERSATION
	// ==========================================================================

	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantText  lipgloss.Style
	ErrorText      lipgloss.Style
	NoticeText     lipgloss.Style
	Welcome        lipgloss.Style
	WelcomeHint    lipgloss.Style

	// ==========================================================================
	// FORMATTED REPLIES
	// ==========================================================================

	Heading    lipgloss.Style
	Bold       lipgloss.Style
	InlineCode lipgloss.Style
	Bullet     lipgloss.Style
	CodeBlock  lipgloss.Style
	CodeLang   lipgloss.Style
	CopyButton lipgloss.Style
	CopyDone   lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	Input         lipgloss.Style
	InputDisabled lipgloss.Style
	SendButton    lipgloss.Style
	StopButton    lipgloss.Style
}

// NewTheme builds the styles for name using the detected colour profile.
func NewTheme(name layout.Theme) *Theme {
	return NewThemeWithProfile(name, termenv.ColorProfile())
}

// NewThemeWithProfile builds the styles for name with an explicit colour
// profile.
func NewThemeWithProfile(name layout.Theme, profile termenv.Profile) *Theme {
	if name != layout.Dark {
		name = layout.Light
	}
	t := &Theme{
		Name:         name,
		Palette:      PaletteFor(name),
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// CodeFormatter names the chroma terminal formatter matching the colour
// profile.
func (t *Theme) CodeFormatter() string {
	switch t.ColorProfile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return "noop"
	}
}

func (t *Theme) initStyles() {
	p := t.Palette

	// Chrome
	t.Header = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.SurfaceDim).
		Padding(0, 1)
	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent)
	t.StatusBar = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Background(p.SurfaceDim).
		Padding(0, 1)
	t.StatusOK = lipgloss.NewStyle().Foreground(p.Success)
	t.StatusBad = lipgloss.NewStyle().Foreground(p.Warning)
	t.Notice = lipgloss.NewStyle().
		Foreground(p.Warning).
		Italic(true)
	t.HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent)
	t.HelpDesc = lipgloss.NewStyle().Foreground(p.TextMuted)
	t.Spinner = lipgloss.NewStyle().Foreground(p.Accent)
	t.TypingText = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)

	// Session panel
	t.Panel = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.SurfaceDim)
	t.PanelTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.TextMuted)
	t.PanelItem = lipgloss.NewStyle().
		Foreground(p.Text)
	t.PanelItemActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		Background(p.AccentSoft)
	t.PanelSearch = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)
	t.PanelHandle = lipgloss.NewStyle().Foreground(p.Overlay)
	t.PanelHandleDrag = lipgloss.NewStyle().Foreground(p.Accent)
	t.Rail = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Background(p.SurfaceDim)

	// Conversation
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.UserFg).
		Background(p.UserBg).
		Padding(0, 1)
	t.UserText = lipgloss.NewStyle().Foreground(p.Text)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent)
	t.AssistantText = lipgloss.NewStyle().Foreground(p.AssistantFg)
	t.ErrorText = lipgloss.NewStyle().
		Foreground(p.Error).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Error).
		BorderLeft(true).
		PaddingLeft(1)
	t.NoticeText = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)
	t.Welcome = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		Align(lipgloss.Center)
	t.WelcomeHint = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Align(lipgloss.Center)

	// Formatted replies
	t.Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent)
	t.Bold = lipgloss.NewStyle().Bold(true)
	t.InlineCode = lipgloss.NewStyle().
		Foreground(p.Accent).
		Background(p.SurfaceDim)
	t.Bullet = lipgloss.NewStyle().Foreground(p.Accent)
	t.CodeBlock = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Overlay).
		Padding(0, 1)
	t.CodeLang = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.TextMuted)
	t.CopyButton = lipgloss.NewStyle().
		Foreground(p.Accent).
		Underline(true)
	t.CopyDone = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)

	// Input
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent).
		Padding(0, 1)
	t.InputDisabled = t.Input.
		BorderForeground(p.Overlay)
	t.SendButton = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Surface).
		Background(p.Accent).
		Padding(0, 1)
	t.StopButton = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Surface).
		Background(p.Error).
		Padding(0, 1)
}
