// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/request"
	"github.com/darty-tutor/darty/internal/tutor"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ReplyMsg carries the result of a remote call back to Update.
type ReplyMsg struct {
	Pending *controller.Pending
	Result  request.Result
}

// CopyRevertMsg fires after render.CopyRevertDelay to restore a copy label.
type CopyRevertMsg struct {
	Token render.CopyToken
}

// StorageChangedMsg reports that another instance wrote key.
type StorageChangedMsg struct {
	Key string
}

// StatusMsg carries the tutor service status.
type StatusMsg struct {
	Status *tutor.Status
	Err    error
}

// ServiceMsg is the outcome of a maintenance call such as a documentation
// sync or cache clear. Text is shown in the status line.
type ServiceMsg struct {
	Text string
	Err  error
}

// =============================================================================
// COMMANDS
// =============================================================================

// askCmd performs the call off the Update goroutine.
func askCmd(p *controller.Pending) tea.Cmd {
	return func() tea.Msg {
		return ReplyMsg{Pending: p, Result: p.Do()}
	}
}

func statusCmd(svc Service) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		st, err := svc.Status(context.Background())
		return StatusMsg{Status: st, Err: err}
	}
}

func waitForChange(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		key, ok := <-ch
		if !ok {
			return nil
		}
		return StorageChangedMsg{Key: key}
	}
}
