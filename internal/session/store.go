// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/storage"
)

// DefaultTitle is used when no localized title function is configured.
const DefaultTitle = "New chat"

// =============================================================================
// STORE
// =============================================================================

// Store is the durable, ordered collection of sessions.
//
// The zero-active state only exists inside a single call: every operation
// that could leave no active session creates a fresh one before returning.
type Store struct {
	mu sync.Mutex

	backend  storage.Storage
	log      *slog.Logger
	newID    func() string
	now      func() time.Time
	newTitle func() string

	sessions []Session
	activeID string
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultTitle sets the function that supplies the localized
// "new chat" title for fresh sessions.
func WithDefaultTitle(fn func() string) Option {
	return func(s *Store) { s.newTitle = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides ID generation, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore returns an empty store bound to backend. Call Load before use.
func NewStore(backend storage.Storage, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		log:      logger.Get(),
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
		newTitle: func() string { return DefaultTitle },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the collection from storage. An unavailable or corrupt store
// degrades to an empty collection; a fresh session is then created so there
// is always an active session afterwards. Load never fails.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = s.readAll()
	s.activeID = ""
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
		return
	}
	if _, err := s.createLocked(); err != nil {
		s.log.Warn("failed to persist initial session", "error", err)
	}
}

// Reload re-reads storage after another process changed it, keeping the
// active session when it still exists.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.activeID
	s.sessions = s.readAll()
	if s.indexOf(prev) >= 0 {
		s.activeID = prev
		return
	}
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
		return
	}
	if _, err := s.createLocked(); err != nil {
		s.log.Warn("failed to persist session after reload", "error", err)
	}
}

func (s *Store) readAll() []Session {
	raw, err := s.backend.Get(storage.KeyChats)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.log.Warn("session storage unavailable, starting empty", "error", err)
		}
		return []Session{}
	}

	var records []Session
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.log.Warn("session storage corrupt, starting empty", "error", err)
		return []Session{}
	}

	out := make([]Session, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.ID == "" || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		if rec.Messages == nil {
			rec.Messages = []Message{}
		}
		out = append(out, rec)
	}
	return out
}

// =============================================================================
// QUERIES
// =============================================================================

// List returns copies of all sessions in persisted (newest-first) order.
func (s *Store) List() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.clone()
	}
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Get returns a copy of the session with id.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Session{}, ErrSessionNotFound
	}
	return s.sessions[i].clone(), nil
}

// ActiveID returns the active session's ID.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active session.
func (s *Store) Active() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(s.activeID); i >= 0 {
		return s.sessions[i].clone()
	}
	return Session{}
}

// SetActive makes id the active session. Activation is not persisted.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return ErrSessionNotFound
	}
	s.activeID = id
	return nil
}

// Search returns sessions whose title or messages contain query.
func (s *Store) Search(query string) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Session
	for _, sess := range s.sessions {
		if sess.Matches(query) {
			out = append(out, sess.clone())
		}
	}
	return out
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create inserts a fresh session at the head, makes it active and persists.
// The returned ID is valid even when persisting fails.
func (s *Store) Create() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *Store) createLocked() (string, error) {
	sess := Session{
		ID:        s.newID(),
		Title:     s.newTitle(),
		Messages:  []Message{},
		CreatedAt: s.now(),
	}
	s.sessions = append([]Session{sess}, s.sessions...)
	s.activeID = sess.ID
	s.log.Debug("session created", "id", sess.ID)
	return sess.ID, s.persistLocked()
}

// Rename sets the title of id to the trimmed title. A title that is empty
// after trimming is ignored and Rename reports false so the caller can
// revert any optimistic edit.
func (s *Store) Rename(id, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, ErrSessionNotFound
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return false, nil
	}
	s.sessions[i].Title = title
	return true, s.persistLocked()
}

// Delete removes id. When id was active the head of the remaining list
// becomes active, or a fresh session is created if none remain.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrSessionNotFound
	}
	s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
	s.log.Debug("session deleted", "id", id)

	if id != s.activeID {
		return s.persistLocked()
	}
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
		return s.persistLocked()
	}
	_, err := s.createLocked()
	return err
}

// AppendMessage pushes msg onto session id and persists. The first user
// message of a session replaces its title with TitleFromQuestion.
func (s *Store) AppendMessage(id string, msg Message) error {
	if msg.Sender != SenderUser && msg.Sender != SenderAssistant {
		return fmt.Errorf("invalid sender %q", msg.Sender)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrSessionNotFound
	}
	sess := &s.sessions[i]
	if msg.Sender == SenderUser && !sess.HasUserMessage() {
		sess.Title = TitleFromQuestion(msg.Content)
	}
	sess.Messages = append(sess.Messages, msg)
	return s.persistLocked()
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked serialises the whole collection. Callers hold s.mu.
func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	if err := s.backend.Set(storage.KeyChats, string(data)); err != nil {
		s.log.Error("failed to persist sessions", "error", err)
		return fmt.Errorf("failed to persist sessions: %w", err)
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrSessionNotFound is returned when a session doesn't exist.
// Use errors.Is(err, ErrSessionNotFound) to check for this error.
var ErrSessionNotFound = &SessionError{Message: "session not found"}

// SessionError represents a session-related error.
type SessionError struct {
	Message string
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing session errors.
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
