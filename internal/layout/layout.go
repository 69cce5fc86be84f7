// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/text/language"

	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/storage"
)

// =============================================================================
// VALUES
// =============================================================================

// Theme is the colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Language is the interface language.
type Language string

const (
	Arabic  Language = "ar"
	English Language = "en"
)

// Direction is a reading direction.
type Direction string

const (
	RTL Direction = "rtl"
	LTR Direction = "ltr"
)

// Side is a physical screen edge.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// ParseLanguage accepts a BCP 47 tag or POSIX locale ("ar", "en-US",
// "ar_EG.UTF-8") and reduces it to a supported language.
func ParseLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return "", false
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "ar":
		return Arabic, true
	case "en":
		return English, true
	}
	return "", false
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Defaults seed preferences that have never been persisted.
type Defaults struct {
	// Theme is "light", "dark" or "auto".
	Theme string
	// Language is "ar", "en", or empty to consult $LANG.
	Language string
	// DetectDark reports whether the terminal background is dark. Used for
	// "auto"; nil means termenv detection.
	DetectDark func() bool
	// Env looks up environment variables; nil means os.Getenv.
	Env func(string) string
}

// Controller owns the persisted theme and language.
type Controller struct {
	mu        sync.Mutex
	store     storage.Storage
	defaults  Defaults
	theme     Theme
	lang      Language
	listeners []func()
	log       *slog.Logger
}

// New returns a controller backed by store. Call Load before use.
func New(store storage.Storage, defaults Defaults) *Controller {
	if defaults.DetectDark == nil {
		defaults.DetectDark = termenv.HasDarkBackground
	}
	if defaults.Env == nil {
		defaults.Env = os.Getenv
	}
	return &Controller{
		store:    store,
		defaults: defaults,
		theme:    Light,
		lang:     Arabic,
		log:      logger.Get(),
	}
}

// Load reads both preferences. Missing or unreadable values fall back to
// the defaults; nothing is written.
func (c *Controller) Load() {
	c.mu.Lock()
	c.theme = c.readTheme()
	c.lang = c.readLanguage()
	c.mu.Unlock()
}

// Reload re-reads both preferences and notifies listeners if either
// changed. Used when another instance wrote them.
func (c *Controller) Reload() {
	c.mu.Lock()
	theme, lang := c.readTheme(), c.readLanguage()
	changed := theme != c.theme || lang != c.lang
	c.theme, c.lang = theme, lang
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

func (c *Controller) readTheme() Theme {
	if v, err := c.store.Get(storage.KeyTheme); err == nil {
		if t, ok := ParseTheme(v); ok {
			return t
		}
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		c.log.Warn("failed to read theme", "error", err)
	}
	if t, ok := ParseTheme(c.defaults.Theme); ok {
		return t
	}
	if c.defaults.DetectDark() {
		return Dark
	}
	return Light
}

func (c *Controller) readLanguage() Language {
	if v, err := c.store.Get(storage.KeyLang); err == nil {
		if l, ok := ParseLanguage(v); ok {
			return l
		}
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		c.log.Warn("failed to read language", "error", err)
	}
	if l, ok := ParseLanguage(c.defaults.Language); ok {
		return l
	}
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if l, ok := ParseLanguage(c.defaults.Env(env)); ok {
			return l
		}
	}
	return Arabic
}

// Theme returns the current theme.
func (c *Controller) Theme() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

// Language returns the current interface language.
func (c *Controller) Language() Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// SetTheme applies and persists t.
func (c *Controller) SetTheme(t Theme) error {
	if _, ok := ParseTheme(string(t)); !ok {
		return fmt.Errorf("unknown theme %q", t)
	}
	c.mu.Lock()
	c.theme = t
	c.mu.Unlock()

	err := c.store.Set(storage.KeyTheme, string(t))
	c.notify()
	if err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

// SetLanguage applies and persists l.
func (c *Controller) SetLanguage(l Language) error {
	if l != Arabic && l != English {
		return fmt.Errorf("unsupported language %q", l)
	}
	c.mu.Lock()
	c.lang = l
	c.mu.Unlock()

	err := c.store.Set(storage.KeyLang, string(l))
	c.notify()
	if err != nil {
		return fmt.Errorf("failed to save language: %w", err)
	}
	return nil
}

// ToggleTheme switches between light and dark.
func (c *Controller) ToggleTheme() error {
	if c.Theme() == Dark {
		return c.SetTheme(Light)
	}
	return c.SetTheme(Dark)
}

// ToggleLanguage switches between Arabic and English.
func (c *Controller) ToggleLanguage() error {
	if c.Language() == Arabic {
		return c.SetLanguage(English)
	}
	return c.SetLanguage(Arabic)
}

// OnChange registers fn to run after every theme or language change.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) notify() {
	c.mu.Lock()
	fns := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// =============================================================================
// DERIVED STATE
// =============================================================================

// T returns the chrome string for key in the current language.
func (c *Controller) T(key Key) string {
	return Translate(c.Language(), key)
}

// ChromeDirection is the reading direction of the interface around the
// conversation.
func (c *Controller) ChromeDirection() Direction {
	return DirectionOf(c.Language())
}

// PanelSide is the edge the session panel docks to: the start of the
// chrome reading direction.
func (c *Controller) PanelSide() Side {
	if c.ChromeDirection() == RTL {
		return Right
	}
	return Left
}

// ContentDirection is the direction of the conversation pane. It does not
// depend on the interface language.
func (c *Controller) ContentDirection() Direction {
	return RTL
}

// DirectionOf returns the reading direction of lang.
func DirectionOf(lang Language) Direction {
	if lang == Arabic {
		return RTL
	}
	return LTR
}
