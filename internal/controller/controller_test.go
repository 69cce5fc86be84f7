// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/request"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/storage"
	"github.com/darty-tutor/darty/internal/tutor"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeTutor struct {
	answer string
	err    error
	block  bool
	calls  []string
	mu     sync.Mutex
}

func (f *fakeTutor) reply(ctx context.Context, prefix, in string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prefix+in)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", errors.New("connection reset")
	}
	return f.answer, f.err
}

func (f *fakeTutor) Ask(ctx context.Context, q string) (string, error) {
	return f.reply(ctx, "ask:", q)
}
func (f *fakeTutor) AnalyzeCode(ctx context.Context, s string) (string, error) {
	return f.reply(ctx, "analyze:", s)
}
func (f *fakeTutor) GenerateExercises(ctx context.Context, s string) (string, error) {
	return f.reply(ctx, "exercises:", s)
}
func (f *fakeTutor) ExplainConcept(ctx context.Context, s string) (string, error) {
	return f.reply(ctx, "explain:", s)
}

type fakeView struct {
	mu           sync.Mutex
	sendEnabled  bool
	stopVisible  bool
	progress     bool
	typing       bool
	conversation []Entry
	shownID      string
	sessions     []session.Session
	inputCleared int
	notices      []string
	events       []string
}

func newFakeView() *fakeView { return &fakeView{sendEnabled: true} }

func (v *fakeView) record(ev string) { v.events = append(v.events, ev) }

func (v *fakeView) SetSendEnabled(b bool) { v.mu.Lock(); v.sendEnabled = b; v.mu.Unlock() }
func (v *fakeView) SetStopVisible(b bool) { v.mu.Lock(); v.stopVisible = b; v.mu.Unlock() }
func (v *fakeView) SetProgress(b bool)    { v.mu.Lock(); v.progress = b; v.mu.Unlock() }
func (v *fakeView) SetTyping(b bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typing = b
	v.record(fmt.Sprintf("typing:%v", b))
}

func (v *fakeView) ShowConversation(id string, entries []Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.shownID = id
	v.conversation = append([]Entry(nil), entries...)
	v.record("show:" + id)
}

func (v *fakeView) AppendEntry(id string, e Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.conversation = append(v.conversation, e)
	v.record("append:" + string(e.Message.Sender))
}

func (v *fakeView) ShowSessions(list []session.Session, activeID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sessions = list
}

func (v *fakeView) ClearInput() { v.mu.Lock(); v.inputCleared++; v.mu.Unlock() }
func (v *fakeView) Notify(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, s)
}

func (v *fakeView) assertIdle(t *testing.T) {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	assert.True(t, v.sendEnabled, "send enabled")
	assert.False(t, v.stopVisible, "stop hidden")
	assert.False(t, v.progress, "progress cleared")
	assert.False(t, v.typing, "typing hidden")
}

type harness struct {
	ctrl    *Controller
	view    *fakeView
	tutor   *fakeTutor
	store   *session.Store
	backend *storage.MemoryStorage
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

	view := newFakeView()
	tut := &fakeTutor{answer: "A **widget** is a building block."}
	ctrl := New(Config{Store: store, Tutor: tut, Layout: lay, View: view})
	ctrl.Refresh()
	return &harness{ctrl: ctrl, view: view, tutor: tut, store: store, backend: backend}
}

func (h *harness) messages(t *testing.T) []session.Message {
	t.Helper()
	return h.store.Active().Messages
}

// =============================================================================
// SEND
// =============================================================================

func TestSend_Success(t *testing.T) {
	h := newHarness(t)

	out, err := h.ctrl.Send(context.Background(), "  what is a widget  ")
	require.NoError(t, err)
	assert.Equal(t, request.Success, out.Kind)
	assert.True(t, out.Displayed)

	msgs := h.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, session.UserMessage("what is a widget"), msgs[0])
	assert.Equal(t, session.AssistantMessage("A **widget** is a building block."), msgs[1])
	assert.Equal(t, "what is a widget", h.store.Active().Title)

	require.Len(t, h.view.conversation, 2)
	assert.Nil(t, h.view.conversation[0].Doc, "user messages are not formatted")
	require.NotNil(t, h.view.conversation[1].Doc)
	assert.Equal(t, 1, h.view.inputCleared)
	assert.Equal(t, "what is a widget", h.view.sessions[0].Title)
	h.view.assertIdle(t)
	assert.Equal(t, []string{"ask:what is a widget"}, h.tutor.calls)
}

func TestSend_LongQuestionTitle(t *testing.T) {
	h := newHarness(t)
	q := strings.Repeat("x", 40)

	_, err := h.ctrl.Send(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 30)+"...", h.store.Active().Title)
}

func TestSend_EmptyIsIgnored(t *testing.T) {
	h := newHarness(t)
	writes := h.backend.Writes()

	for _, q := range []string{"", "   ", "\n\t", "/explain   "} {
		_, err := h.ctrl.Send(context.Background(), q)
		assert.ErrorIs(t, err, ErrInputIgnored, "%q", q)
	}
	assert.Empty(t, h.messages(t))
	assert.Equal(t, writes, h.backend.Writes())
	assert.Empty(t, h.tutor.calls)
	assert.Zero(t, h.view.inputCleared)
}

func TestSend_FailuresBecomeOneMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    request.Kind
		content string
		msgKind session.Kind
	}{
		{"server", &tutor.ServerError{StatusCode: 400, Message: "tutor not initialized"}, request.ServerError, "tutor not initialized", session.KindError},
		{"network", errors.New("dial tcp: refused"), request.NetworkError, "Connection error: dial tcp: refused", session.KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.tutor.err = tt.err

			out, err := h.ctrl.Send(context.Background(), "q")
			require.NoError(t, err, "failures are outcomes, not errors")
			assert.Equal(t, tt.kind, out.Kind)

			msgs := h.messages(t)
			require.Len(t, msgs, 2)
			assert.Equal(t, tt.content, msgs[1].Content)
			assert.Equal(t, tt.msgKind, msgs[1].Kind)
			assert.Nil(t, h.view.conversation[1].Doc)
			h.view.assertIdle(t)
		})
	}
}

func TestStop_ExactlyOneNoticeAndIdleAffordances(t *testing.T) {
	h := newHarness(t)
	h.tutor.block = true

	p, err := h.ctrl.Begin("long question")
	require.NoError(t, err)
	assert.True(t, h.ctrl.Busy())
	assert.False(t, h.view.sendEnabled)
	assert.True(t, h.view.stopVisible)
	assert.True(t, h.view.typing)

	done := make(chan request.Result, 1)
	go func() { done <- p.Do() }()

	require.Eventually(t, func() bool {
		h.tutor.mu.Lock()
		defer h.tutor.mu.Unlock()
		return len(h.tutor.calls) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, h.ctrl.Stop())

	var res request.Result
	select {
	case res = <-done:
	case <-time.After(time.Second):
		t.Fatal("call did not end after Stop")
	}
	out := h.ctrl.Complete(p, res)

	assert.Equal(t, request.Aborted, out.Kind)
	msgs := h.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, session.NoticeMessage("Generation stopped"), msgs[1])
	h.view.assertIdle(t)
	assert.False(t, h.ctrl.Busy())
	assert.False(t, h.ctrl.Stop(), "nothing left to stop")
}

func TestSend_ContextCancelAborts(t *testing.T) {
	h := newHarness(t)
	h.tutor.block = true
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := h.ctrl.Send(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, request.Aborted, out.Kind)
	assert.Len(t, h.messages(t), 2)
}

func TestBegin_RejectsSecondSend(t *testing.T) {
	h := newHarness(t)

	p, err := h.ctrl.Begin("first")
	require.NoError(t, err)

	_, err = h.ctrl.Begin("second")
	assert.ErrorIs(t, err, ErrRequestInFlight)
	assert.Equal(t, []string{"A request is already running"}, h.view.notices)
	require.Len(t, h.messages(t), 1, "rejected question is not recorded")

	h.ctrl.Complete(p, p.Do())
	_, err = h.ctrl.Send(context.Background(), "second")
	require.NoError(t, err)
	assert.Len(t, h.messages(t), 4)
}

func TestPersistHappensBeforeRender(t *testing.T) {
	h := newHarness(t)
	p, err := h.ctrl.Begin("q")
	require.NoError(t, err)
	res := p.Do()

	v := &persistCheckView{fakeView: h.view, store: h.store, t: t}
	h.ctrl.view = v
	h.ctrl.Complete(p, res)
	assert.True(t, v.checked)
}

type persistCheckView struct {
	*fakeView
	store   *session.Store
	t       *testing.T
	checked bool
}

func (v *persistCheckView) AppendEntry(id string, e Entry) {
	sess, err := v.store.Get(id)
	require.NoError(v.t, err)
	last := sess.Messages[len(sess.Messages)-1]
	assert.Equal(v.t, e.Message, last, "message must be stored before it is shown")
	v.checked = true
}

func TestComplete_SessionSwitchedAway(t *testing.T) {
	h := newHarness(t)
	first := h.store.ActiveID()

	p, err := h.ctrl.Begin("q")
	require.NoError(t, err)
	res := p.Do()

	second, err := h.ctrl.NewSession()
	require.NoError(t, err)
	assert.True(t, h.view.sendEnabled, "new session is idle")

	// the new session can send while the first is still outstanding
	_, err = h.ctrl.Send(context.Background(), "other")
	require.NoError(t, err)

	out := h.ctrl.Complete(p, res)
	assert.False(t, out.Displayed)
	assert.Equal(t, second, h.view.shownID)

	got, err := h.store.Get(first)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2, "reply is bound to its own session")
	h.view.assertIdle(t)
}

func TestSlashCommands(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctrl.Send(context.Background(), "/explain streams")
	require.NoError(t, err)
	_, err = h.ctrl.Send(context.Background(), "/analyze\nvoid main() {}")
	require.NoError(t, err)
	_, err = h.ctrl.Send(context.Background(), "/EXERCISES futures")
	require.NoError(t, err)
	_, err = h.ctrl.Send(context.Background(), "/unknown thing")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"explain:streams",
		"analyze:void main() {}",
		"exercises:futures",
		"ask:/unknown thing",
	}, h.tutor.calls)
	assert.Equal(t, "/explain streams", h.store.Active().Title)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSwitchSession_RendersWithoutPersisting(t *testing.T) {
	h := newHarness(t)
	first := h.store.ActiveID()
	_, err := h.ctrl.Send(context.Background(), "hello")
	require.NoError(t, err)
	_, err = h.ctrl.NewSession()
	require.NoError(t, err)

	assert.Empty(t, h.view.conversation, "new session shows the welcome placeholder")

	writes := h.backend.Writes()
	require.NoError(t, h.ctrl.SwitchSession(first))
	assert.Equal(t, writes, h.backend.Writes())
	assert.Equal(t, first, h.view.shownID)
	require.Len(t, h.view.conversation, 2)
	assert.Equal(t, "hello", h.view.conversation[0].Message.Content)

	assert.ErrorIs(t, h.ctrl.SwitchSession("missing"), session.ErrSessionNotFound)
}

func TestSwitchSession_ResyncsAffordances(t *testing.T) {
	h := newHarness(t)
	first := h.store.ActiveID()
	h.tutor.block = true
	p, err := h.ctrl.Begin("slow")
	require.NoError(t, err)

	_, err = h.ctrl.NewSession()
	require.NoError(t, err)
	h.view.assertIdle(t)

	require.NoError(t, h.ctrl.SwitchSession(first))
	assert.False(t, h.view.sendEnabled)
	assert.True(t, h.view.stopVisible)
	assert.True(t, h.view.typing)

	p.Cancel()
	h.ctrl.Complete(p, p.Do())
	h.view.assertIdle(t)
}

func TestDeleteAndRename(t *testing.T) {
	h := newHarness(t)
	first := h.store.ActiveID()
	second, err := h.ctrl.NewSession()
	require.NoError(t, err)

	ok, err := h.ctrl.RenameSession(first, "Widgets")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.ctrl.RenameSession(first, "   ")
	require.NoError(t, err)
	assert.False(t, ok)
	got, _ := h.store.Get(first)
	assert.Equal(t, "Widgets", got.Title)

	require.NoError(t, h.ctrl.DeleteSession(second))
	assert.Equal(t, first, h.store.ActiveID())
	assert.Equal(t, first, h.view.shownID)

	require.NoError(t, h.ctrl.DeleteSession(first))
	assert.Equal(t, 1, h.store.Len())
	assert.Empty(t, h.view.conversation)
	assert.Equal(t, "New chat", h.store.Active().Title)
}

func TestParseCommand(t *testing.T) {
	tool, arg := ParseCommand("  /explain   async  ")
	assert.Equal(t, ToolExplain, tool)
	assert.Equal(t, "async", arg)

	tool, arg = ParseCommand("how do I /explain this")
	assert.Equal(t, ToolAsk, tool)
	assert.Equal(t, "how do I /explain this", arg)
	assert.Equal(t, "ask", tool.String())
}
