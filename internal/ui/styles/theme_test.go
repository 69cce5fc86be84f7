// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/muesli/termenv"

	"github.com/darty-tutor/darty/internal/layout"
)

func TestNewThemePicksPalette(t *testing.T) {
	dark := NewThemeWithProfile(layout.Dark, termenv.Ascii)
	if dark.Palette != DarkPalette {
		t.Error("dark theme should use DarkPalette")
	}
	if dark.Name != layout.Dark {
		t.Errorf("Name = %q, want dark", dark.Name)
	}

	light := NewThemeWithProfile(layout.Light, termenv.Ascii)
	if light.Palette != LightPalette {
		t.Error("light theme should use LightPalette")
	}
}

func TestNewThemeUnknownFallsBackToLight(t *testing.T) {
	th := NewThemeWithProfile(layout.Theme("sepia"), termenv.Ascii)
	if th.Name != layout.Light {
		t.Errorf("Name = %q, want light", th.Name)
	}
}

func TestPalettesDiffer(t *testing.T) {
	if LightPalette.Surface == DarkPalette.Surface {
		t.Error("palettes should have different surfaces")
	}
	if LightPalette.CodeStyle == "" || DarkPalette.CodeStyle == "" {
		t.Error("both palettes need a code style")
	}
}

func TestCodeFormatter(t *testing.T) {
	tests := []struct {
		profile termenv.Profile
		want    string
	}{
		{termenv.TrueColor, "terminal16m"},
		{termenv.ANSI256, "terminal256"},
		{termenv.ANSI, "terminal16"},
		{termenv.Ascii, "noop"},
	}
	for _, tt := range tests {
		th := NewThemeWithProfile(layout.Light, tt.profile)
		if got := th.CodeFormatter(); got != tt.want {
			t.Errorf("CodeFormatter(%v) = %q, want %q", tt.profile, got, tt.want)
		}
	}
}

func TestStylesRenderText(t *testing.T) {
	th := NewThemeWithProfile(layout.Dark, termenv.Ascii)
	for name, s := range map[string]interface{ Render(...string) string }{
		"Title":     th.Title,
		"UserLabel": th.UserLabel,
		"ErrorText": th.ErrorText,
		"CodeBlock": th.CodeBlock,
		"Input":     th.Input,
	} {
		if s.Render("x") == "" {
			t.Errorf("%s rendered nothing", name)
		}
	}
}
