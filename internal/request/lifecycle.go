// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package request

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/darty-tutor/darty/internal/logger"
)

// ErrInFlight is returned by Start when the session already has a call.
var ErrInFlight = errors.New("a request is already in flight for this session")

// Indicators are the display affordances tied to an outstanding call.
type Indicators interface {
	SetSendEnabled(enabled bool)
	SetStopVisible(visible bool)
	SetProgress(active bool)
	SetTyping(visible bool)
}

// Asker performs the remote call. tutor.Client.Ask satisfies it.
type Asker func(ctx context.Context, input string) (string, error)

// =============================================================================
// LIFECYCLE
// =============================================================================

// Lifecycle tracks the outstanding call of each session.
//
// Indicators always describe the focused session, the one on screen. Calls
// for other sessions run and settle without touching them.
type Lifecycle struct {
	mu      sync.Mutex
	ask     Asker
	ind     Indicators
	calls   map[string]*Call
	focused string
	nextSeq uint64
	log     *slog.Logger
}

// New returns a Lifecycle that calls ask and drives ind. ind may be nil.
func New(ask Asker, ind Indicators) *Lifecycle {
	return &Lifecycle{
		ask:   ask,
		ind:   ind,
		calls: make(map[string]*Call),
		log:   logger.Get(),
	}
}

// SetIndicators replaces the indicator sink.
func (l *Lifecycle) SetIndicators(ind Indicators) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ind = ind
}

// Focus marks sessionID as the one on screen and re-syncs the indicators
// to its state.
func (l *Lifecycle) Focus(sessionID string) {
	l.mu.Lock()
	l.focused = sessionID
	_, busy := l.calls[sessionID]
	ind := l.ind
	l.mu.Unlock()

	if ind == nil {
		return
	}
	if busy {
		applyBusy(ind)
		ind.SetTyping(true)
		return
	}
	applyIdle(ind)
}

// Start registers a call for sessionID and turns the busy indicators on.
func (l *Lifecycle) Start(sessionID string) (*Call, error) {
	l.mu.Lock()
	if _, busy := l.calls[sessionID]; busy {
		l.mu.Unlock()
		return nil, ErrInFlight
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.nextSeq++
	call := &Call{
		SessionID: sessionID,
		Seq:       l.nextSeq,
		ctx:       ctx,
		cancel:    cancel,
		ask:       l.ask,
		started:   time.Now(),
	}
	l.calls[sessionID] = call
	ind, focused := l.ind, l.focused == sessionID
	l.mu.Unlock()

	l.log.Debug("request started", "session", sessionID, "seq", call.Seq)
	if ind != nil && focused {
		applyBusy(ind)
	}
	return call, nil
}

// Settle is the cleanup that ends every call: typing hidden, send enabled,
// stop hidden, progress cleared, slot released. It is safe to call more
// than once and with a nil call.
func (l *Lifecycle) Settle(call *Call) {
	if call == nil {
		return
	}
	call.cancel()

	l.mu.Lock()
	if l.calls[call.SessionID] != call {
		l.mu.Unlock()
		return
	}
	delete(l.calls, call.SessionID)
	ind, focused := l.ind, l.focused == call.SessionID
	l.mu.Unlock()

	l.log.Debug("request settled", "session", call.SessionID, "seq", call.Seq, "elapsed", time.Since(call.started))
	if ind != nil && focused {
		applyIdle(ind)
	}
}

// InFlight reports whether sessionID has an outstanding call.
func (l *Lifecycle) InFlight(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.calls[sessionID]
	return ok
}

// Cancel cancels sessionID's outstanding call, if any. It reports whether
// there was one.
func (l *Lifecycle) Cancel(sessionID string) bool {
	l.mu.Lock()
	call := l.calls[sessionID]
	l.mu.Unlock()
	if call == nil {
		return false
	}
	call.Cancel()
	return true
}

// CancelAll cancels every outstanding call. Used on shutdown.
func (l *Lifecycle) CancelAll() {
	l.mu.Lock()
	calls := make([]*Call, 0, len(l.calls))
	for _, c := range l.calls {
		calls = append(calls, c)
	}
	l.mu.Unlock()
	for _, c := range calls {
		c.Cancel()
	}
}

func applyBusy(ind Indicators) {
	ind.SetSendEnabled(false)
	ind.SetStopVisible(true)
	ind.SetProgress(true)
}

func applyIdle(ind Indicators) {
	ind.SetTyping(false)
	ind.SetSendEnabled(true)
	ind.SetStopVisible(false)
	ind.SetProgress(false)
}

// =============================================================================
// CALL
// =============================================================================

// Call is one outstanding request.
type Call struct {
	SessionID string
	Seq       uint64

	ctx     context.Context
	cancel  context.CancelFunc
	ask     Asker
	started time.Time
}

// Do runs the default asker with question. It blocks until the transport
// returns or the call is canceled.
func (c *Call) Do(question string) Result {
	return c.DoWith(c.ask, question)
}

// DoWith runs fn instead of the default asker, for the tutor's tool
// endpoints. The result discipline is the same.
func (c *Call) DoWith(fn Asker, input string) Result {
	if err := c.ctx.Err(); err != nil {
		return Result{Kind: Aborted}
	}
	answer, err := fn(c.ctx, input)
	return Classify(c.ctx, answer, err)
}

// Cancel signals the transport to stop waiting. Safe to call repeatedly.
func (c *Call) Cancel() {
	c.cancel()
}

// Canceled reports whether Cancel has been called.
func (c *Call) Canceled() bool {
	return c.ctx.Err() != nil
}
