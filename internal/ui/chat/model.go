// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/storage"
	"github.com/darty-tutor/darty/internal/tutor"
	"github.com/darty-tutor/darty/internal/ui/components"
	"github.com/darty-tutor/darty/internal/ui/styles"
)

// Fixed rows around the body: header, input box (with border) and status.
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
	minConvWidth = 10
)

// Service is the maintenance side of the tutor service.
type Service interface {
	Status(ctx context.Context) (*tutor.Status, error)
	ScrapeDocumentation(ctx context.Context) (*tutor.ScrapeResponse, error)
	ClearCache(ctx context.Context) (string, error)
}

// Options configures a Model.
type Options struct {
	Controller *controller.Controller
	Layout     *layout.Controller
	Panel      *layout.Panel

	// Service may be nil, which disables the status badge, documentation
	// sync and cache clearing.
	Service Service
	// Watcher may be nil, which disables cross-instance sync.
	Watcher storage.Watcher

	// ExportDir receives exported transcripts. Empty means ".".
	ExportDir string
	// CopyRevertDelay overrides render.CopyRevertDelay.
	CopyRevertDelay time.Duration
	Keys            *KeyMap
}

type focus int

const (
	focusInput focus = iota
	focusPanel
	focusSearch
	focusRename
)

// Model is the chat screen.
type Model struct {
	ctrl    *controller.Controller
	layout  *layout.Controller
	panel   *layout.Panel
	svc     Service
	watcher storage.Watcher
	keys    KeyMap
	theme   *styles.Theme
	log     *slog.Logger

	exportDir   string
	revertDelay time.Duration

	width  int
	height int
	ready  bool

	viewport viewport.Model
	input    textinput.Model
	search   textinput.Model
	rename   textinput.Model
	spinner  spinner.Model
	ticking  bool

	focus       focus
	cursor      int
	renameID    string
	deleteArmed string

	// State driven by the controller.
	sessionID   string
	entries     []controller.Entry
	sessions    []session.Session
	activeID    string
	sendEnabled bool
	stopVisible bool
	progress    bool
	typing      bool
	notice      string

	status  *tutor.Status
	syncing bool

	rendered components.Rendered

	changes     chan string
	cancelWatch context.CancelFunc
}

// New builds the chat screen and attaches it to the controller.
func New(opts Options) *Model {
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	panel := opts.Panel
	if panel == nil {
		panel = layout.NewPanel(layout.DefaultPanelBounds(), 26, opts.Layout.PanelSide())
	}
	delay := opts.CopyRevertDelay
	if delay <= 0 {
		delay = render.CopyRevertDelay
	}
	dir := opts.ExportDir
	if dir == "" {
		dir = "."
	}

	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 8192
	input.Focus()

	search := textinput.New()
	search.Prompt = ""
	search.CharLimit = 128

	rename := textinput.New()
	rename.Prompt = ""
	rename.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	m := &Model{
		ctrl:        opts.Controller,
		layout:      opts.Layout,
		panel:       panel,
		svc:         opts.Service,
		watcher:     opts.Watcher,
		keys:        keys,
		log:         logger.Get(),
		exportDir:   dir,
		revertDelay: delay,
		viewport:    viewport.New(80, 20),
		input:       input,
		search:      search,
		rename:      rename,
		spinner:     sp,
		sendEnabled: true,
	}
	m.applyLayout()
	m.layout.OnChange(m.applyLayout)
	m.ctrl.SetView(m)
	return m
}

// Init starts the cursor blink, the status probe and the storage watcher.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, statusCmd(m.svc)}
	if m.watcher != nil && m.changes == nil {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancelWatch = cancel
		m.changes = make(chan string, 8)
		go m.watch(ctx)
		cmds = append(cmds, waitForChange(m.changes))
	}
	return tea.Batch(cmds...)
}

func (m *Model) watch(ctx context.Context) {
	defer close(m.changes)
	err := m.watcher.Watch(ctx, func(key string) {
		select {
		case m.changes <- key:
		case <-ctx.Done():
		}
	})
	if err != nil && ctx.Err() == nil {
		m.log.Warn("storage watcher stopped", "error", err)
	}
}

// Close stops the watcher and cancels outstanding calls.
func (m *Model) Close() {
	if m.cancelWatch != nil {
		m.cancelWatch()
		m.cancelWatch = nil
	}
	m.ctrl.Shutdown()
}

// applyLayout rebuilds everything that depends on theme or language.
func (m *Model) applyLayout() {
	m.theme = styles.NewTheme(m.layout.Theme())
	m.ctrl.Renderer().SetCopyLabel(m.layout.T(layout.KeyCopy))
	m.panel.SetSide(m.layout.PanelSide())

	p := m.theme.Palette
	m.input.Placeholder = m.layout.T(layout.KeyPlaceholder)
	m.input.PromptStyle = lipgloss.NewStyle().Foreground(p.Accent)
	m.input.TextStyle = lipgloss.NewStyle().Foreground(p.Text)
	m.input.PlaceholderStyle = lipgloss.NewStyle().Foreground(p.TextFaint)
	m.search.TextStyle = m.theme.PanelSearch
	m.rename.TextStyle = lipgloss.NewStyle().Foreground(p.Text)

	m.resize()
}

// =============================================================================
// GEOMETRY
// =============================================================================

func (m *Model) bodyHeight() int {
	h := m.height - headerHeight - inputHeight - statusHeight
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) convWidth() int {
	w := m.width - m.panel.VisibleWidth()
	if w < minConvWidth {
		return minConvWidth
	}
	return w
}

// inPanel reports whether column x falls inside the session panel.
func (m *Model) inPanel(x int) bool {
	pw := m.panel.VisibleWidth()
	if m.panel.Side() == layout.Right {
		return x >= m.width-pw
	}
	return x < pw
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.convWidth()
	m.viewport.Height = m.bodyHeight()

	frame := m.theme.Input.GetHorizontalFrameSize()
	button := lipgloss.Width(m.buttonView()) + 1
	m.input.Width = m.width - frame - button - lipgloss.Width(m.input.Prompt) - 1
	if m.input.Width < 1 {
		m.input.Width = 1
	}
	m.refreshViewport(false)
}

// =============================================================================
// CONVERSATION
// =============================================================================

func (m *Model) conversation() components.Conversation {
	t := m.layout.T
	tracker := m.ctrl.Renderer().Tracker()
	return components.Conversation{
		Theme:     m.theme,
		Width:     m.convWidth(),
		Direction: m.layout.ContentDirection(),
		Labels: components.Labels{
			You:         t(layout.KeyYou),
			Tutor:       t(layout.KeyTutor),
			Welcome:     t(layout.KeyWelcome),
			WelcomeHint: t(layout.KeyWelcomeHint),
			Typing:      t(layout.KeyTyping),
		},
		CopyState: func(id string) (string, bool) {
			if tracker != nil && tracker.Copied(id) {
				return t(layout.KeyCopied), true
			}
			return t(layout.KeyCopy), false
		},
	}
}

// refreshViewport re-renders the conversation. The view follows new
// content when it was already at the bottom or bottom is true.
func (m *Model) refreshViewport(bottom bool) {
	if !m.ready {
		return
	}
	follow := bottom || m.viewport.AtBottom()
	m.rendered = m.conversation().Render(m.entries, m.typing, m.spinner.View())
	m.viewport.SetContent(m.rendered.Text)
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// SESSION PANEL
// =============================================================================

// visibleSessions is the session list, filtered by the search query.
func (m *Model) visibleSessions() []session.Session {
	if q := m.search.Value(); q != "" {
		return m.ctrl.Store().Search(q)
	}
	return m.sessions
}

func (m *Model) sidebar() components.Sidebar {
	return components.Sidebar{
		Theme:      m.theme,
		Width:      m.panel.VisibleWidth(),
		Height:     m.bodyHeight(),
		Title:      m.layout.T(layout.KeyHistory),
		SearchHint: m.layout.T(layout.KeySearch),
		Query:      m.search.Value(),
		Searching:  m.focus == focusSearch,
		Sessions:   m.visibleSessions(),
		ActiveID:   m.activeID,
		Cursor:     m.cursor,
		Side:       m.panel.Side(),
		Direction:  m.layout.ChromeDirection(),
		Collapsed:  m.panel.Collapsed(),
		Dragging:   m.panel.Dragging(),
	}
}

// syncCursor points the cursor at the active session.
func (m *Model) syncCursor() {
	for i, s := range m.visibleSessions() {
		if s.ID == m.activeID {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.visibleSessions())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) cursorSession() (session.Session, bool) {
	list := m.visibleSessions()
	if m.cursor < 0 || m.cursor >= len(list) {
		return session.Session{}, false
	}
	return list[m.cursor], true
}

// =============================================================================
// controller.View
// =============================================================================

var _ controller.View = (*Model)(nil)

func (m *Model) SetSendEnabled(on bool) { m.sendEnabled = on }

func (m *Model) SetStopVisible(on bool) {
	m.stopVisible = on
	m.resize()
}

func (m *Model) SetProgress(on bool) { m.progress = on }

func (m *Model) SetTyping(on bool) {
	if m.typing == on {
		return
	}
	m.typing = on
	m.refreshViewport(on)
}

func (m *Model) ShowConversation(sessionID string, entries []controller.Entry) {
	m.sessionID = sessionID
	m.entries = append([]controller.Entry(nil), entries...)
	m.refreshViewport(true)
}

func (m *Model) AppendEntry(sessionID string, entry controller.Entry) {
	if sessionID != m.sessionID {
		return
	}
	m.entries = append(m.entries, entry)
	m.refreshViewport(true)
}

func (m *Model) ShowSessions(sessions []session.Session, activeID string) {
	m.sessions = sessions
	m.activeID = activeID
	if m.focus == focusInput {
		m.syncCursor()
	} else {
		m.clampCursor()
	}
}

func (m *Model) ClearInput() { m.input.Reset() }

func (m *Model) Notify(text string) { m.notice = text }
