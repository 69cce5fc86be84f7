// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/request"
	"github.com/darty-tutor/darty/internal/session"
)

// Entry is a message ready for display. Doc is set for normal assistant
// messages, which are formatted; every other message is shown as escaped
// plain text.
type Entry struct {
	Message session.Message
	Doc     *render.Document
}

// View is what the controller drives. The TUI, the line REPL and tests
// implement it.
type View interface {
	request.Indicators

	// ShowConversation replaces the conversation pane. An empty entries
	// slice shows the welcome placeholder.
	ShowConversation(sessionID string, entries []Entry)
	// AppendEntry adds one entry to the conversation pane.
	AppendEntry(sessionID string, entry Entry)
	// ShowSessions refreshes the session list.
	ShowSessions(sessions []session.Session, activeID string)
	// ClearInput empties the input field.
	ClearInput()
	// Notify shows a transient status line.
	Notify(text string)
}

// NopView ignores everything. Embed it to implement part of View.
type NopView struct{}

func (NopView) SetSendEnabled(bool)                    {}
func (NopView) SetStopVisible(bool)                    {}
func (NopView) SetProgress(bool)                       {}
func (NopView) SetTyping(bool)                         {}
func (NopView) ShowConversation(string, []Entry)       {}
func (NopView) AppendEntry(string, Entry)              {}
func (NopView) ShowSessions([]session.Session, string) {}
func (NopView) ClearInput()                            {}
func (NopView) Notify(string)                          {}
