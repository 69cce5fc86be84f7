// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/tutor"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0
	// ExitGeneralError indicates a general or unknown error.
	ExitGeneralError = 1
	// ExitUsageError indicates invalid arguments.
	ExitUsageError = 2
	// ExitConfigError indicates a configuration problem.
	ExitConfigError = 3
	// ExitServerError indicates the tutor service reported a failure.
	ExitServerError = 4
	// ExitNetworkError indicates the tutor service could not be reached.
	ExitNetworkError = 5
	// ExitCanceled indicates the user stopped the operation.
	ExitCanceled = 6
	// ExitNotFoundError indicates a session was not found.
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out.
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a failed command with context.
type CommandError struct {
	Command string // e.g. "sessions", "config"
	Action  string // e.g. "delete", "load"
	Reason  string // optional human-readable reason
	Err     error
}

func (e *CommandError) Error() string {
	msg := e.Command + " " + e.Action + " failed"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError represents invalid arguments.
type UsageError struct {
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("%s\nExample: %s", e.Reason, e.Example)
	}
	return e.Reason
}

// NotFoundError represents a session reference that matched nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usage    *UsageError
		notFound *NotFoundError
		cmdErr   *CommandError
		server   *tutor.ServerError
	)
	switch {
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &notFound), errors.Is(err, session.ErrSessionNotFound):
		return ExitNotFoundError
	case errors.As(err, &server):
		return ExitServerError
	case errors.Is(err, tutor.ErrTimeout):
		return ExitTimeoutError
	case errors.Is(err, tutor.ErrCanceled):
		return ExitCanceled
	case errors.Is(err, tutor.ErrNotReachable), errors.Is(err, tutor.ErrInvalidResponse):
		return ExitNetworkError
	case errors.As(err, &cmdErr) && cmdErr.Command == "config":
		return ExitConfigError
	}
	return ExitGeneralError
}
