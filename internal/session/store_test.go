// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/storage"
)

func newTestStore(t *testing.T, backend storage.Storage) *Store {
	t.Helper()
	n := 0
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewStore(backend,
		WithLogger(logger.Discard()),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("s%d", n)
		}),
		WithClock(func() time.Time { return base.Add(time.Duration(n) * time.Minute) }),
		WithDefaultTitle(func() string { return "محادثة جديدة" }),
	)
}

func TestLoad_EmptyStorageCreatesSession(t *testing.T) {
	backend := storage.NewMemoryStorage()
	s := newTestStore(t, backend)
	s.Load()

	require.Equal(t, 1, s.Len())
	active := s.Active()
	assert.Equal(t, "s1", active.ID)
	assert.Equal(t, "محادثة جديدة", active.Title)
	assert.True(t, active.IsEmpty())
	assert.Equal(t, 1, backend.Writes(), "fresh session must be persisted")
}

func TestLoad_CorruptStorageDegradesToEmpty(t *testing.T) {
	backend := storage.NewMemoryStorage()
	require.NoError(t, backend.Set(storage.KeyChats, "{not json"))

	s := newTestStore(t, backend)
	s.Load()

	require.Equal(t, 1, s.Len())
	assert.True(t, s.Active().IsEmpty())
}

func TestLoad_UnavailableStorageDegradesToEmpty(t *testing.T) {
	backend := storage.NewMemoryStorage()
	backend.Fail = storage.ErrUnavailable

	s := newTestStore(t, backend)
	s.Load()

	require.Equal(t, 1, s.Len())
	assert.NotEmpty(t, s.ActiveID())
}

func TestLoad_SkipsInvalidRecords(t *testing.T) {
	backend := storage.NewMemoryStorage()
	raw := `[{"id":"a","title":"A","messages":null},{"id":"","title":"x"},{"id":"a","title":"dup"},{"id":"b","title":"B","messages":[]}]`
	require.NoError(t, backend.Set(storage.KeyChats, raw))

	s := newTestStore(t, backend)
	s.Load()

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Title)
	assert.NotNil(t, list[0].Messages)
	assert.Equal(t, "a", s.ActiveID())
}

func TestCreate_InsertsAtHeadAndActivates(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()

	id, err := s.Create()
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, id, s.ActiveID())
}

func TestAppendMessage_TitleRules(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"short verbatim", "what is a widget", "what is a widget"},
		{"exactly thirty", strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{"forty chars", strings.Repeat("b", 40), strings.Repeat("b", 30) + "..."},
		{"arabic runes", strings.Repeat("م", 31), strings.Repeat("م", 30) + "..."},
		{"trimmed", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, storage.NewMemoryStorage())
			s.Load()
			id := s.ActiveID()

			require.NoError(t, s.AppendMessage(id, UserMessage(tt.question)))
			got, err := s.Get(id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Title)
		})
	}
}

func TestAppendMessage_TitleSetOnlyOnce(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()
	id := s.ActiveID()

	require.NoError(t, s.AppendMessage(id, UserMessage("first")))
	require.NoError(t, s.AppendMessage(id, AssistantMessage("answer")))
	require.NoError(t, s.AppendMessage(id, UserMessage("second")))

	got, _ := s.Get(id)
	assert.Equal(t, "first", got.Title)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "first", got.Messages[0].Content)
	assert.Equal(t, "answer", got.Messages[1].Content)
	assert.Equal(t, "second", got.Messages[2].Content)
}

func TestAppendMessage_AssistantFirstKeepsDefaultTitle(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()
	id := s.ActiveID()

	require.NoError(t, s.AppendMessage(id, NoticeMessage("stopped")))
	got, _ := s.Get(id)
	assert.Equal(t, "محادثة جديدة", got.Title)
}

func TestAppendMessage_Errors(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()

	err := s.AppendMessage("missing", UserMessage("x"))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = s.AppendMessage(s.ActiveID(), Message{Content: "x", Sender: "robot"})
	assert.Error(t, err)
}

func TestAppendMessage_PersistFailureIsReturned(t *testing.T) {
	backend := storage.NewMemoryStorage()
	s := newTestStore(t, backend)
	s.Load()

	backend.Fail = storage.ErrUnavailable
	err := s.AppendMessage(s.ActiveID(), UserMessage("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Len(t, s.Active().Messages, 1)
}

func TestRename(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()
	id := s.ActiveID()

	ok, err := s.Rename(id, "  Widgets  ")
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ := s.Get(id)
	assert.Equal(t, "Widgets", got.Title)

	for _, blank := range []string{"", "   ", "\t\n"} {
		ok, err = s.Rename(id, blank)
		require.NoError(t, err)
		assert.False(t, ok)
		got, _ = s.Get(id)
		assert.Equal(t, "Widgets", got.Title)
	}

	_, err = s.Rename("missing", "x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDelete_ActiveWithOthersActivatesHead(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()             // s1
	_, _ = s.Create()    // s2
	id3, _ := s.Create() // s3, active

	require.NoError(t, s.Delete(id3))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].ID)
	assert.Equal(t, "s2", s.ActiveID())
}

func TestDelete_InactiveKeepsActive(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()
	active, _ := s.Create()

	require.NoError(t, s.Delete("s1"))
	assert.Equal(t, active, s.ActiveID())
	assert.Equal(t, 1, s.Len())
}

func TestDelete_LastCreatesFreshSession(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()
	id := s.ActiveID()
	require.NoError(t, s.AppendMessage(id, UserMessage("hello")))

	require.NoError(t, s.Delete(id))

	list := s.List()
	require.Len(t, list, 1)
	assert.NotEqual(t, id, list[0].ID)
	assert.True(t, list[0].IsEmpty())
	assert.Equal(t, list[0].ID, s.ActiveID())

	assert.ErrorIs(t, s.Delete("missing"), ErrSessionNotFound)
}

func TestPersistRoundTrip(t *testing.T) {
	backend := storage.NewMemoryStorage()
	s := newTestStore(t, backend)
	s.Load()
	first := s.ActiveID()
	require.NoError(t, s.AppendMessage(first, UserMessage("what is a widget")))
	require.NoError(t, s.AppendMessage(first, AssistantMessage("a **thing**")))
	second, _ := s.Create()
	require.NoError(t, s.AppendMessage(second, UserMessage("why")))
	require.NoError(t, s.AppendMessage(second, ErrorMessage("server said no")))

	reloaded := NewStore(backend, WithLogger(logger.Discard()))
	reloaded.Load()

	want := s.List()
	got := reloaded.List()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Messages, got[i].Messages)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
	}
	assert.Equal(t, second, reloaded.ActiveID(), "reload resumes at head")
}

func TestPersistFormat(t *testing.T) {
	backend := storage.NewMemoryStorage()
	s := newTestStore(t, backend)
	s.Load()
	require.NoError(t, s.AppendMessage(s.ActiveID(), UserMessage("hi")))

	raw, err := backend.Get(storage.KeyChats)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0]["id"])
	assert.Contains(t, records[0], "createdAt")
	msgs := records[0]["messages"].([]any)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["sender"])
	assert.NotContains(t, msg, "kind")
}

func TestListReturnsCopies(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()
	require.NoError(t, s.AppendMessage(s.ActiveID(), UserMessage("hi")))

	list := s.List()
	list[0].Title = "mutated"
	list[0].Messages[0].Content = "mutated"

	got := s.Active()
	assert.Equal(t, "hi", got.Title)
	assert.Equal(t, "hi", got.Messages[0].Content)
}

func TestSetActive(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()
	_, _ = s.Create()

	require.NoError(t, s.SetActive("s1"))
	assert.Equal(t, "s1", s.ActiveID())
	assert.ErrorIs(t, s.SetActive("nope"), ErrSessionNotFound)
	assert.Equal(t, "s1", s.ActiveID())
}

func TestSearch(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Load()
	require.NoError(t, s.AppendMessage("s1", UserMessage("Flutter Widgets")))
	id2, _ := s.Create()
	require.NoError(t, s.AppendMessage(id2, UserMessage("state management")))
	require.NoError(t, s.AppendMessage(id2, AssistantMessage("use a Provider")))

	assert.Len(t, s.Search(""), 2)
	got := s.Search("widgets")
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	got = s.Search("PROVIDER")
	require.Len(t, got, 1)
	assert.Equal(t, id2, got[0].ID)
	assert.Empty(t, s.Search("kotlin"))
}

func TestReload_KeepsActiveWhenPresent(t *testing.T) {
	backend := storage.NewMemoryStorage()
	a := newTestStore(t, backend)
	a.Load()
	_, _ = a.Create()
	require.NoError(t, a.SetActive("s1"))

	b := NewStore(backend, WithLogger(logger.Discard()))
	b.Load()
	require.NoError(t, b.AppendMessage("s1", UserMessage("from b")))

	a.Reload()
	assert.Equal(t, "s1", a.ActiveID())
	assert.Equal(t, "from b", a.Active().Title)

	require.NoError(t, b.Delete("s1"))
	a.Reload()
	assert.Equal(t, "s2", a.ActiveID())
}
