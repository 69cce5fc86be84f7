// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package request

import (
	"context"
	"errors"

	"github.com/darty-tutor/darty/internal/tutor"
)

// Kind is the outcome of a call.
type Kind int

const (
	// Success carries the answer text.
	Success Kind = iota
	// ServerError carries the message the server reported.
	ServerError
	// NetworkError carries the transport failure detail.
	NetworkError
	// Aborted means the call was canceled by the user.
	Aborted
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ServerError:
		return "server_error"
	case NetworkError:
		return "network_error"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Result is what a call resolved to. Text is the answer, the server message
// or the transport detail depending on Kind; it is empty for Aborted.
type Result struct {
	Kind Kind
	Text string
}

// Classify maps a transport outcome to a Result. A canceled context always
// wins, so a connection torn down by Cancel is never reported as a network
// failure.
func Classify(ctx context.Context, answer string, err error) Result {
	if errors.Is(ctx.Err(), context.Canceled) {
		return Result{Kind: Aborted}
	}
	if err == nil {
		return Result{Kind: Success, Text: answer}
	}
	if msg, ok := tutor.ServerMessage(err); ok {
		return Result{Kind: ServerError, Text: msg}
	}
	if errors.Is(err, context.Canceled) {
		return Result{Kind: Aborted}
	}
	return Result{Kind: NetworkError, Text: err.Error()}
}
