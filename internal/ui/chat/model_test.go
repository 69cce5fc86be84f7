// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/storage"
	"github.com/darty-tutor/darty/internal/tutor"
)

// =============================================================================
// FAKES
// =============================================================================

const codeAnswer = "Use this:\n```dart\nvoid main() {}\n```"

type fakeTutor struct {
	mu      sync.Mutex
	answer  string
	block   bool
	release chan struct{}
	calls   []string
}

func (f *fakeTutor) reply(ctx context.Context, in string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	block, release := f.block, f.release
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, nil
}

func (f *fakeTutor) Ask(ctx context.Context, q string) (string, error) { return f.reply(ctx, q) }
func (f *fakeTutor) AnalyzeCode(ctx context.Context, s string) (string, error) {
	return f.reply(ctx, s)
}
func (f *fakeTutor) GenerateExercises(ctx context.Context, s string) (string, error) {
	return f.reply(ctx, s)
}
func (f *fakeTutor) ExplainConcept(ctx context.Context, s string) (string, error) {
	return f.reply(ctx, s)
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) WriteAll(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = s
	return nil
}

type fakeService struct {
	cleared bool
}

func (s *fakeService) Status(context.Context) (*tutor.Status, error) {
	return &tutor.Status{APIKeyConfigured: true, TutorInitialized: true}, nil
}

func (s *fakeService) ScrapeDocumentation(context.Context) (*tutor.ScrapeResponse, error) {
	return &tutor.ScrapeResponse{ContextLength: 1234}, nil
}

func (s *fakeService) ClearCache(context.Context) (string, error) {
	s.cleared = true
	return "ok", nil
}

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	m       *Model
	tutor   *fakeTutor
	clip    *fakeClipboard
	svc     *fakeService
	lay     *layout.Controller
	store   *session.Store
	backend *storage.MemoryStorage
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := storage.NewMemoryStorage()
	lay := layout.New(backend, layout.Defaults{
		Language:   "en",
		Theme:      "light",
		DetectDark: func() bool { return false },
		Env:        func(string) string { return "" },
	})
	lay.Load()
	store := session.NewStore(backend,
		session.WithLogger(logger.Discard()),
		session.WithDefaultTitle(func() string { return lay.T(layout.KeyNewChat) }),
	)
	store.Load()

	clip := &fakeClipboard{}
	tut := &fakeTutor{answer: codeAnswer}
	svc := &fakeService{}
	ctrl := controller.New(controller.Config{
		Store:    store,
		Tutor:    tut,
		Renderer: render.NewRenderer(render.NewCopyTracker(clip)),
		Layout:   lay,
	})
	dir := t.TempDir()
	m := New(Options{
		Controller:      ctrl,
		Layout:          lay,
		Service:         svc,
		ExportDir:       dir,
		CopyRevertDelay: time.Millisecond,
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	t.Cleanup(m.Close)

	return &harness{m: m, tutor: tut, clip: clip, svc: svc, lay: lay, store: store, backend: backend, dir: dir}
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	_, cmd := h.m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func (h *harness) runes(s string) tea.Cmd {
	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return cmd
}

func (h *harness) click(x, y int) tea.Cmd {
	_, cmd := h.m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	return cmd
}

// ask types q, presses Enter and returns the resulting command without
// running it.
func (h *harness) ask(q string) tea.Cmd {
	h.m.input.SetValue(q)
	return h.press(tea.KeyEnter)
}

// drain runs cmd and feeds the messages this package produces back into
// Update. Spinner ticks and cursor blinks are dropped.
func (h *harness) drain(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.drain(c)
		}
	case ReplyMsg, CopyRevertMsg, ServiceMsg, StatusMsg:
		_, next := h.m.Update(msg)
		h.drain(next)
	}
}

// =============================================================================
// SENDING
// =============================================================================

func TestSendShowsReply(t *testing.T) {
	h := newHarness(t)

	cmd := h.ask("What is a widget?")
	assert.True(t, h.m.typing, "typing indicator while waiting")
	assert.False(t, h.m.sendEnabled)
	assert.True(t, h.m.stopVisible)
	assert.Empty(t, h.m.input.Value(), "input cleared on send")

	h.drain(cmd)

	require.Len(t, h.m.entries, 2)
	assert.Equal(t, session.SenderUser, h.m.entries[0].Message.Sender)
	assert.NotNil(t, h.m.entries[1].Doc, "assistant replies are formatted")
	assert.False(t, h.m.typing)
	assert.True(t, h.m.sendEnabled)
	assert.False(t, h.m.stopVisible)

	require.NotEmpty(t, h.m.sessions)
	assert.Equal(t, "What is a widget?", h.m.sessions[0].Title)

	view := h.m.View()
	assert.Contains(t, view, "Tutor")
	assert.Contains(t, view, "void main() {}")
}

func TestEmptyInputIgnored(t *testing.T) {
	h := newHarness(t)
	cmd := h.ask("   ")
	assert.Nil(t, cmd)
	assert.Empty(t, h.m.entries)
	assert.Empty(t, h.tutor.calls)
}

func TestSecondSendRejectedWhileBusy(t *testing.T) {
	h := newHarness(t)
	h.tutor.block = true

	first := h.ask("first")
	h.ask("second")
	assert.Equal(t, "A request is already running", h.m.notice)
	assert.Equal(t, "second", h.m.input.Value(), "rejected input is kept")

	h.press(tea.KeyEsc)
	h.drain(first)
	assert.Len(t, h.tutor.calls, 1)
}

func TestStopRecordsNotice(t *testing.T) {
	h := newHarness(t)
	h.tutor.block = true

	cmd := h.ask("long question")
	h.press(tea.KeyEsc)
	h.drain(cmd)

	require.Len(t, h.m.entries, 2)
	last := h.m.entries[1].Message
	assert.Equal(t, session.KindNotice, last.Kind)
	assert.Equal(t, "Generation stopped", last.Content)
	assert.True(t, h.m.sendEnabled)
}

func TestReplyForOtherSessionNotDisplayed(t *testing.T) {
	h := newHarness(t)
	h.tutor.release = make(chan struct{})

	first := h.m.activeID
	cmd := h.ask("question")
	h.press(tea.KeyCtrlN)
	require.NotEqual(t, first, h.m.activeID)
	assert.False(t, h.m.typing, "the new session has nothing in flight")

	close(h.tutor.release)
	h.drain(cmd)

	assert.Empty(t, h.m.entries, "reply belongs to the other session")
	sess, err := h.store.Get(first)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, session.SenderAssistant, sess.Messages[1].Sender)
}

// =============================================================================
// COPY
// =============================================================================

func TestCopyLastCodeBlock(t *testing.T) {
	h := newHarness(t)
	h.drain(h.ask("show code"))

	cmd := h.press(tea.KeyCtrlY)
	require.NotNil(t, cmd)
	assert.Equal(t, "void main() {}", h.clip.text)
	assert.Contains(t, h.m.View(), "[Copied!]")

	h.drain(cmd)
	assert.NotContains(t, h.m.View(), "[Copied!]")
	assert.Contains(t, h.m.View(), "[Copy]")
}

func TestClickCopyButton(t *testing.T) {
	h := newHarness(t)
	h.drain(h.ask("show code"))

	require.Len(t, h.m.rendered.Buttons, 1)
	var line int
	for l := range h.m.rendered.Buttons {
		line = l
	}
	y := line - h.m.viewport.YOffset + headerHeight
	x := h.m.panel.VisibleWidth() + 5

	cmd := h.click(x, y)
	require.NotNil(t, cmd)
	assert.Equal(t, "void main() {}", h.clip.text)
}

// =============================================================================
// PANEL
// =============================================================================

func TestDragResizesAndCollapsesPanel(t *testing.T) {
	h := newHarness(t)
	p := h.m.panel
	require.Equal(t, layout.Left, p.Side())

	edge := p.VisibleWidth() - 1
	h.click(edge, 5)
	assert.True(t, p.Dragging())

	h.m.Update(tea.MouseMsg{X: 35, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.Equal(t, 36, p.Width())
	assert.Equal(t, 100-36, h.m.viewport.Width)

	h.m.Update(tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.True(t, p.Collapsed())
	assert.Equal(t, 36, p.Width(), "expanded width is remembered")

	h.m.Update(tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionRelease})
	assert.False(t, p.Dragging())
}

func TestTogglePanelKey(t *testing.T) {
	h := newHarness(t)
	h.press(tea.KeyCtrlB)
	assert.True(t, h.m.panel.Collapsed())
	assert.Equal(t, 100-layout.RailWidth, h.m.viewport.Width)
	h.press(tea.KeyCtrlB)
	assert.False(t, h.m.panel.Collapsed())
}

func TestNewChatAndSwitchBack(t *testing.T) {
	h := newHarness(t)
	h.drain(h.ask("first question"))
	first := h.m.activeID

	h.press(tea.KeyCtrlN)
	assert.Empty(t, h.m.entries)
	assert.Len(t, h.m.sessions, 2)
	assert.Contains(t, h.m.View(), "Hi! I'm your Dart and Flutter tutor")

	h.press(tea.KeyTab)
	require.Equal(t, focusPanel, h.m.focus)
	h.press(tea.KeyDown)
	h.press(tea.KeyEnter)

	assert.Equal(t, first, h.m.activeID)
	assert.Len(t, h.m.entries, 2)
	assert.Equal(t, focusInput, h.m.focus)
}

func TestClickSessionSwitches(t *testing.T) {
	h := newHarness(t)
	first := h.m.activeID
	h.press(tea.KeyCtrlN)

	// Body row 3 is the second session: title and search lines come first.
	h.click(2, headerHeight+3)
	assert.Equal(t, first, h.m.activeID)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.press(tea.KeyCtrlN)
	require.Equal(t, 2, h.store.Len())

	h.press(tea.KeyTab)
	h.runes("d")
	assert.Equal(t, "Press again to delete", h.m.notice)
	assert.Equal(t, 2, h.store.Len())

	h.runes("d")
	assert.Equal(t, 1, h.store.Len())
}

func TestDeleteDisarmedByOtherKey(t *testing.T) {
	h := newHarness(t)
	h.press(tea.KeyCtrlN)
	h.press(tea.KeyTab)

	h.runes("d")
	h.press(tea.KeyDown)
	h.press(tea.KeyUp)
	h.runes("d")
	assert.Equal(t, 2, h.store.Len(), "second press after moving only re-arms")
}

func TestRenameFromPanel(t *testing.T) {
	h := newHarness(t)
	id := h.m.activeID

	h.press(tea.KeyTab)
	h.runes("r")
	require.Equal(t, focusRename, h.m.focus)
	h.m.rename.SetValue("Widgets")
	h.press(tea.KeyEnter)

	sess, err := h.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Widgets", sess.Title)
	assert.Equal(t, focusPanel, h.m.focus)
}

func TestRenameBlankKeepsTitle(t *testing.T) {
	h := newHarness(t)
	id := h.m.activeID

	h.press(tea.KeyTab)
	h.runes("r")
	h.m.rename.SetValue("   ")
	h.press(tea.KeyEnter)

	sess, err := h.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "New chat", sess.Title)
}

func TestSearchFiltersPanel(t *testing.T) {
	h := newHarness(t)
	h.drain(h.ask("streams in dart"))
	h.press(tea.KeyCtrlN)
	h.drain(h.ask("flutter layout"))

	h.press(tea.KeyTab)
	h.runes("/")
	require.Equal(t, focusSearch, h.m.focus)
	h.runes("stream")

	visible := h.m.visibleSessions()
	require.Len(t, visible, 1)
	assert.Equal(t, "streams in dart", visible[0].Title)

	h.press(tea.KeyEsc)
	assert.Len(t, h.m.visibleSessions(), 2)
	assert.Equal(t, focusPanel, h.m.focus)
}

// =============================================================================
// LAYOUT
// =============================================================================

func TestToggleLanguageMovesPanel(t *testing.T) {
	h := newHarness(t)
	h.press(tea.KeyCtrlL)

	assert.Equal(t, layout.Arabic, h.lay.Language())
	assert.Equal(t, layout.Right, h.m.panel.Side())
	stored, err := h.backend.Get(storage.KeyLang)
	require.NoError(t, err)
	assert.Equal(t, "ar", stored)
	assert.Contains(t, h.m.View(), "دارتي")
}

func TestToggleTheme(t *testing.T) {
	h := newHarness(t)
	h.press(tea.KeyCtrlT)
	assert.Equal(t, layout.Dark, h.m.theme.Name)
	h.press(tea.KeyCtrlT)
	assert.Equal(t, layout.Light, h.m.theme.Name)
}

// =============================================================================
// SYNC AND SERVICE
// =============================================================================

func TestStorageChangeReloadsSessions(t *testing.T) {
	h := newHarness(t)
	require.Len(t, h.m.sessions, 1)

	other := session.NewStore(h.backend, session.WithLogger(logger.Discard()))
	other.Load()
	_, err := other.Create()
	require.NoError(t, err)

	h.m.Update(StorageChangedMsg{Key: storage.KeyChats})
	assert.Len(t, h.m.sessions, 2)
}

func TestStorageChangeReloadsTheme(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.backend.Set(storage.KeyTheme, "dark"))

	h.m.Update(StorageChangedMsg{Key: storage.KeyTheme})
	assert.Equal(t, layout.Dark, h.m.theme.Name)
}

func TestExportWritesHTML(t *testing.T) {
	h := newHarness(t)
	h.drain(h.ask("export me"))

	h.press(tea.KeyCtrlE)
	require.True(t, strings.HasPrefix(h.m.notice, "Saved to "), h.m.notice)

	path := strings.TrimPrefix(h.m.notice, "Saved to ")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "export me")
	assert.Contains(t, string(data), `class="code-block"`)
}

func TestSyncDocsAndClearCache(t *testing.T) {
	h := newHarness(t)

	h.drain(h.press(tea.KeyCtrlS))
	assert.Equal(t, "Documentation synced (1234)", h.m.notice)
	assert.False(t, h.m.syncing)
	require.NotNil(t, h.m.status)
	assert.Contains(t, h.m.View(), "Tutor ready")

	h.drain(h.press(tea.KeyCtrlK))
	assert.True(t, h.svc.cleared)
	assert.Equal(t, "Cache cleared", h.m.notice)
}

func TestQuitCancelsCalls(t *testing.T) {
	h := newHarness(t)
	h.tutor.block = true
	cmd := h.ask("q")

	quit := h.press(tea.KeyCtrlC)
	require.NotNil(t, quit)

	h.drain(cmd)
	assert.True(t, h.m.sendEnabled)
}
