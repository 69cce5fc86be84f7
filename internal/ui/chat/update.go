// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/export"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/storage"
	"github.com/darty-tutor/darty/internal/tutor"
)

// panelStep is how far the keyboard resizes the panel per press.
const panelStep = 2

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	return m, tea.Batch(cmd, m.animate())
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resize()
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case spinner.TickMsg:
		if !m.animating() {
			m.ticking = false
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.typing {
			m.refreshViewport(false)
		}
		return cmd

	case ReplyMsg:
		m.ctrl.Complete(msg.Pending, msg.Result)
		return nil

	case CopyRevertMsg:
		if tracker := m.ctrl.Renderer().Tracker(); tracker != nil && tracker.Revert(msg.Token) {
			m.refreshViewport(false)
		}
		return nil

	case StorageChangedMsg:
		switch msg.Key {
		case storage.KeyChats:
			m.ctrl.Reload()
		case storage.KeyTheme, storage.KeyLang:
			m.layout.Reload()
		}
		return waitForChange(m.changes)

	case StatusMsg:
		if msg.Err != nil {
			m.log.Warn("status probe failed", "error", msg.Err)
			m.status = nil
			return nil
		}
		m.status = msg.Status
		return nil

	case ServiceMsg:
		m.syncing = false
		if msg.Err != nil {
			m.notice = m.errorText(msg.Err)
			return nil
		}
		m.notice = msg.Text
		return statusCmd(m.svc)
	}
	return nil
}

// animating reports whether the spinner has something to show.
func (m *Model) animating() bool {
	return m.typing || m.progress || m.syncing
}

// animate starts the spinner if it should run and is not already ticking.
func (m *Model) animate() tea.Cmd {
	if m.ticking || !m.animating() {
		return nil
	}
	m.ticking = true
	return m.spinner.Tick
}

func (m *Model) errorText(err error) string {
	if text, ok := tutor.ServerMessage(err); ok {
		return text
	}
	return fmt.Sprintf("%s: %v", m.layout.T(layout.KeyConnectionErr), err)
}

// =============================================================================
// KEYBOARD
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return tea.Quit
	}

	switch m.focus {
	case focusRename:
		return m.handleRenameKey(msg)
	case focusSearch:
		return m.handleSearchKey(msg)
	}

	if cmd, ok := m.handleGlobalKey(msg); ok {
		return cmd
	}

	if m.focus == focusPanel {
		return m.handlePanelKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleGlobalKey handles bindings that work in the input and the panel.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Stop):
		if m.ctrl.Stop() {
			return nil, true
		}
		if m.focus == focusPanel {
			m.focusInput()
			return nil, true
		}
		m.notice = ""
		return nil, true

	case key.Matches(msg, m.keys.NewChat):
		if _, err := m.ctrl.NewSession(); err != nil {
			m.notice = err.Error()
		}
		m.focusInput()
		return nil, true

	case key.Matches(msg, m.keys.TogglePanel):
		m.panel.Toggle()
		if m.panel.Collapsed() && m.focus == focusPanel {
			m.focusInput()
		}
		m.resize()
		return nil, true

	case key.Matches(msg, m.keys.FocusPanel):
		if m.focus == focusPanel {
			m.focusInput()
			return nil, true
		}
		if m.panel.Collapsed() {
			m.panel.Toggle()
			m.resize()
		}
		m.focus = focusPanel
		m.input.Blur()
		m.syncCursor()
		return nil, true

	case key.Matches(msg, m.keys.ToggleLang):
		if err := m.layout.ToggleLanguage(); err != nil {
			m.notice = err.Error()
		}
		return nil, true

	case key.Matches(msg, m.keys.ToggleTheme):
		if err := m.layout.ToggleTheme(); err != nil {
			m.notice = err.Error()
		}
		return nil, true

	case key.Matches(msg, m.keys.CopyCode):
		if id := m.lastCodeBlock(); id != "" {
			return m.copyBlock(id), true
		}
		return nil, true

	case key.Matches(msg, m.keys.Export):
		m.exportActive()
		return nil, true

	case key.Matches(msg, m.keys.SyncDocs):
		return m.syncDocs(), true

	case key.Matches(msg, m.keys.ClearCache):
		return m.clearCache(), true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil, true
	}
	return nil, false
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Send) {
		return m.send()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// send starts a call for the input text.
func (m *Model) send() tea.Cmd {
	p, err := m.ctrl.Begin(m.input.Value())
	if err != nil {
		if !errors.Is(err, controller.ErrInputIgnored) && !errors.Is(err, controller.ErrRequestInFlight) {
			m.notice = err.Error()
		}
		return nil
	}
	m.notice = ""
	return askCmd(p)
}

func (m *Model) focusInput() {
	m.focus = focusInput
	m.deleteArmed = ""
	m.input.Focus()
	m.syncCursor()
}

// =============================================================================
// SESSION PANEL KEYS
// =============================================================================

func (m *Model) handlePanelKey(msg tea.KeyMsg) tea.Cmd {
	armed := m.deleteArmed
	m.deleteArmed = ""

	switch {
	case key.Matches(msg, m.keys.PanelUp):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.PanelDown):
		if m.cursor < len(m.visibleSessions())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PanelOpen):
		if s, ok := m.cursorSession(); ok {
			m.switchTo(s.ID)
			m.focusInput()
		}
	case key.Matches(msg, m.keys.PanelDelete):
		s, ok := m.cursorSession()
		if !ok {
			return nil
		}
		if armed != s.ID {
			m.deleteArmed = s.ID
			m.notice = m.layout.T(layout.KeyConfirmDelete)
			return nil
		}
		m.notice = ""
		if err := m.ctrl.DeleteSession(s.ID); err != nil {
			m.notice = err.Error()
		}
		m.clampCursor()
	case key.Matches(msg, m.keys.PanelRename):
		if s, ok := m.cursorSession(); ok {
			m.renameID = s.ID
			m.rename.SetValue(s.Title)
			m.rename.CursorEnd()
			m.rename.Focus()
			m.focus = focusRename
		}
	case key.Matches(msg, m.keys.PanelSearch):
		m.focus = focusSearch
		m.search.Focus()
	case key.Matches(msg, m.keys.PanelNarrower):
		if m.panel.Resize(-panelStep) {
			m.resize()
		}
	case key.Matches(msg, m.keys.PanelWider):
		if m.panel.Resize(panelStep) {
			m.resize()
		}
	}
	return nil
}

func (m *Model) switchTo(id string) {
	if id == m.activeID {
		return
	}
	if err := m.ctrl.SwitchSession(id); err != nil {
		m.notice = err.Error()
	}
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		id := m.renameID
		m.endRename()
		if _, err := m.ctrl.RenameSession(id, m.rename.Value()); err != nil {
			m.notice = err.Error()
		}
		return nil
	case tea.KeyEsc:
		m.endRename()
		return nil
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return cmd
}

func (m *Model) endRename() {
	m.renameID = ""
	m.rename.Blur()
	m.focus = focusPanel
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.search.Blur()
		m.focus = focusPanel
		m.cursor = 0
		return nil
	case tea.KeyEsc:
		m.search.Reset()
		m.search.Blur()
		m.focus = focusPanel
		m.syncCursor()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	return cmd
}

// =============================================================================
// MOUSE
// =============================================================================

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Action {
	case tea.MouseActionMotion:
		if m.panel.Dragging() && m.panel.Track(msg.X, m.width) {
			m.resize()
		}
		return nil

	case tea.MouseActionRelease:
		m.panel.EndDrag()
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.LineUp(3)
		return nil
	case tea.MouseButtonWheelDown:
		m.viewport.LineDown(3)
		return nil
	case tea.MouseButtonLeft:
	default:
		return nil
	}

	row := msg.Y - headerHeight
	if row < 0 || row >= m.bodyHeight() {
		return nil
	}
	if m.panel.OnHandle(msg.X, m.width) {
		m.panel.BeginDrag(msg.X)
		return nil
	}
	if m.inPanel(msg.X) {
		if m.panel.Collapsed() {
			m.panel.Toggle()
			m.resize()
			return nil
		}
		if i, ok := m.sidebar().ItemAt(row); ok {
			m.switchTo(m.visibleSessions()[i].ID)
		}
		return nil
	}
	if id, ok := m.rendered.Buttons[row+m.viewport.YOffset]; ok {
		return m.copyBlock(id)
	}
	return nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// copyBlock copies a code block and schedules its label to revert.
func (m *Model) copyBlock(id string) tea.Cmd {
	tracker := m.ctrl.Renderer().Tracker()
	if tracker == nil {
		return nil
	}
	tok, err := tracker.Copy(id)
	if err != nil {
		m.log.Warn("copy failed", "block", id, "error", err)
		m.notice = err.Error()
		return nil
	}
	m.refreshViewport(false)
	return tea.Tick(m.revertDelay, func(time.Time) tea.Msg {
		return CopyRevertMsg{Token: tok}
	})
}

// lastCodeBlock is the ID of the newest code block on screen.
func (m *Model) lastCodeBlock() string {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if doc := m.entries[i].Doc; doc != nil {
			if blocks := doc.CodeBlocks(); len(blocks) > 0 {
				return blocks[len(blocks)-1].ID
			}
		}
	}
	return ""
}

func (m *Model) exportActive() {
	sess, err := m.ctrl.Store().Get(m.activeID)
	if err != nil {
		m.notice = err.Error()
		return
	}
	opts := export.DefaultOptions()
	opts.OutputDir = m.exportDir
	opts.Theme = m.layout.Theme()
	opts.Language = m.layout.Language()
	path, err := export.ExportSession(&sess, "html", opts)
	if err != nil {
		m.log.Error("export failed", "session", sess.ID, "error", err)
		m.notice = err.Error()
		return
	}
	m.notice = m.layout.T(layout.KeyExported) + " " + path
}

func (m *Model) syncDocs() tea.Cmd {
	if m.svc == nil || m.syncing {
		return nil
	}
	m.syncing = true
	m.notice = m.layout.T(layout.KeySyncDocs) + "..."
	svc, done := m.svc, m.layout.T(layout.KeySyncDone)
	return func() tea.Msg {
		res, err := svc.ScrapeDocumentation(context.Background())
		if err != nil {
			return ServiceMsg{Err: err}
		}
		return ServiceMsg{Text: done + " (" + strconv.Itoa(res.ContextLength) + ")"}
	}
}

func (m *Model) clearCache() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	svc, done := m.svc, m.layout.T(layout.KeyCacheCleared)
	return func() tea.Msg {
		if _, err := svc.ClearCache(context.Background()); err != nil {
			return ServiceMsg{Err: err}
		}
		return ServiceMsg{Text: done}
	}
}
