// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/request"
	"github.com/darty-tutor/darty/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInputIgnored is returned for input that is empty after trimming.
	// Nothing observable happens.
	ErrInputIgnored = errors.New("input ignored")
	// ErrRequestInFlight is returned when the active session already has
	// an outstanding call.
	ErrRequestInFlight = errors.New("request already in flight")
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Config wires a Controller.
type Config struct {
	Store    *session.Store
	Tutor    Tutor
	Renderer *render.Renderer
	Layout   *layout.Controller
	View     View
}

// Controller owns one conversation surface.
type Controller struct {
	store    *session.Store
	tutor    Tutor
	renderer *render.Renderer
	layout   *layout.Controller
	view     View
	life     *request.Lifecycle
	log      *slog.Logger
}

// New returns a controller. A nil View is replaced by NopView.
func New(cfg Config) *Controller {
	view := cfg.View
	if view == nil {
		view = NopView{}
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.NewRenderer(nil)
	}
	return &Controller{
		store:    cfg.Store,
		tutor:    cfg.Tutor,
		renderer: renderer,
		layout:   cfg.Layout,
		view:     view,
		life:     request.New(cfg.Tutor.Ask, view),
		log:      logger.Get(),
	}
}

// SetView replaces the view and redraws everything on it.
func (c *Controller) SetView(v View) {
	if v == nil {
		v = NopView{}
	}
	c.view = v
	c.life.SetIndicators(v)
	c.Refresh()
}

// Store returns the session store.
func (c *Controller) Store() *session.Store { return c.store }

// Renderer returns the renderer used for assistant messages.
func (c *Controller) Renderer() *render.Renderer { return c.renderer }

// Busy reports whether the active session has an outstanding call.
func (c *Controller) Busy() bool {
	return c.life.InFlight(c.store.ActiveID())
}

// Shutdown cancels every outstanding call.
func (c *Controller) Shutdown() {
	c.life.CancelAll()
}

func (c *Controller) t(key layout.Key) string {
	if c.layout == nil {
		return layout.Translate(layout.Arabic, key)
	}
	return c.layout.T(key)
}

// =============================================================================
// SENDING
// =============================================================================

// Pending is a call that Begin accepted and Complete has not yet settled.
type Pending struct {
	SessionID string
	Question  string
	Tool      Tool

	input string
	call  *request.Call
	ask   request.Asker
}

// Do performs the remote call. It blocks and touches no display state, so
// it may run on any goroutine.
func (p *Pending) Do() request.Result {
	return p.call.DoWith(p.ask, p.input)
}

// Cancel aborts the call.
func (p *Pending) Cancel() {
	p.call.Cancel()
}

// Outcome reports how a send ended.
type Outcome struct {
	SessionID string
	Kind      request.Kind
	Message   session.Message
	// Displayed is false when the user switched away before completion;
	// the message is persisted either way.
	Displayed bool
}

// Begin validates and starts sending question on the active session.
func (c *Controller) Begin(question string) (*Pending, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return nil, ErrInputIgnored
	}
	tool, input := ParseCommand(trimmed)
	if input == "" {
		return nil, ErrInputIgnored
	}

	sid := c.store.ActiveID()
	call, err := c.life.Start(sid)
	if err != nil {
		if errors.Is(err, request.ErrInFlight) {
			c.view.Notify(c.t(layout.KeyBusy))
			return nil, ErrRequestInFlight
		}
		return nil, err
	}

	before, _ := c.store.Get(sid)
	user := session.UserMessage(trimmed)
	if err := c.store.AppendMessage(sid, user); err != nil {
		c.log.Error("failed to save question", "session", sid, "error", err)
		c.view.Notify(err.Error())
	}

	c.view.ClearInput()
	c.view.AppendEntry(sid, c.entry(user))
	if !before.HasUserMessage() {
		c.view.ShowSessions(c.store.List(), sid)
	}
	c.view.SetTyping(true)

	c.log.Info("question sent", "session", sid, "tool", tool, "len", len(trimmed))
	return &Pending{
		SessionID: sid,
		Question:  trimmed,
		Tool:      tool,
		input:     input,
		call:      call,
		ask:       tool.Asker(c.tutor),
	}, nil
}

// Complete records the one terminal message for p and settles the call.
// The message is persisted before it is displayed.
func (c *Controller) Complete(p *Pending, res request.Result) Outcome {
	defer c.life.Settle(p.call)

	var msg session.Message
	switch res.Kind {
	case request.Success:
		msg = session.AssistantMessage(res.Text)
	case request.ServerError:
		msg = session.ErrorMessage(res.Text)
	case request.NetworkError:
		msg = session.ErrorMessage(fmt.Sprintf("%s: %s", c.t(layout.KeyConnectionErr), res.Text))
	default:
		msg = session.NoticeMessage(c.t(layout.KeyStopped))
	}

	if err := c.store.AppendMessage(p.SessionID, msg); err != nil {
		c.log.Error("failed to save reply", "session", p.SessionID, "error", err)
	}
	c.log.Info("reply received", "session", p.SessionID, "result", res.Kind)

	out := Outcome{SessionID: p.SessionID, Kind: res.Kind, Message: msg}
	if c.store.ActiveID() == p.SessionID {
		c.view.SetTyping(false)
		c.view.AppendEntry(p.SessionID, c.entry(msg))
		out.Displayed = true
	}
	return out
}

// Send runs Begin, Do and Complete in order. Canceling ctx stops the call
// the same way Stop does.
func (c *Controller) Send(ctx context.Context, question string) (Outcome, error) {
	p, err := c.Begin(question)
	if err != nil {
		return Outcome{}, err
	}
	stop := context.AfterFunc(ctx, p.Cancel)
	defer stop()
	return c.Complete(p, p.Do()), nil
}

// Stop aborts the active session's call. It reports whether there was one.
func (c *Controller) Stop() bool {
	return c.life.Cancel(c.store.ActiveID())
}

// =============================================================================
// SESSIONS
// =============================================================================

// Refresh redraws the active session, the session list and affordances.
func (c *Controller) Refresh() {
	c.showActive()
	c.life.Focus(c.store.ActiveID())
}

// SwitchSession displays session id. Nothing is persisted.
func (c *Controller) SwitchSession(id string) error {
	if err := c.store.SetActive(id); err != nil {
		return err
	}
	c.Refresh()
	return nil
}

// NewSession creates and displays a fresh session.
func (c *Controller) NewSession() (string, error) {
	id, err := c.store.Create()
	c.Refresh()
	if err != nil {
		return id, fmt.Errorf("failed to save new session: %w", err)
	}
	return id, nil
}

// DeleteSession removes id, canceling its call if one is running.
func (c *Controller) DeleteSession(id string) error {
	c.life.Cancel(id)
	err := c.store.Delete(id)
	c.Refresh()
	return err
}

// RenameSession retitles id. It reports false when title was blank and the
// old title stays; the list is redrawn either way so an edit in progress
// reverts.
func (c *Controller) RenameSession(id, title string) (bool, error) {
	ok, err := c.store.Rename(id, title)
	c.view.ShowSessions(c.store.List(), c.store.ActiveID())
	return ok, err
}

// Reload re-reads sessions written by another instance.
func (c *Controller) Reload() {
	c.store.Reload()
	c.Refresh()
}

// Entries returns the display entries of session id.
func (c *Controller) Entries(id string) ([]Entry, error) {
	sess, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}
	return c.entries(sess), nil
}

func (c *Controller) showActive() {
	sess := c.store.Active()
	if tracker := c.renderer.Tracker(); tracker != nil {
		tracker.Reset()
	}
	c.view.ShowConversation(sess.ID, c.entries(sess))
	c.view.ShowSessions(c.store.List(), sess.ID)
}

func (c *Controller) entries(sess session.Session) []Entry {
	out := make([]Entry, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		out = append(out, c.entry(m))
	}
	return out
}

func (c *Controller) entry(m session.Message) Entry {
	e := Entry{Message: m}
	if m.Sender == session.SenderAssistant && m.Kind == session.KindNormal {
		doc := c.renderer.Document(m.Content)
		e.Doc = &doc
	}
	return e
}
