// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/darty-tutor/darty/internal/config"
)

// Well-known keys.
const (
	KeyChats = "darty_chats"
	KeyTheme = "darty_theme"
	KeyLang  = "darty_lang"
)

// Storage is a durable string key/value store.
type Storage interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(key string) (string, error)
	// Set replaces the value for key. It returns only after the value is durable.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	Close() error
}

// Watcher is implemented by backends that can report changes made by other
// processes sharing the same storage.
type Watcher interface {
	// Watch calls fn with the key of every externally modified entry until
	// ctx is done.
	Watch(ctx context.Context, fn func(key string)) error
}

// Open creates the backend selected by cfg.
func Open(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStorage(cfg.Dir)
	case config.BackendSQLite:
		return NewSQLiteStorage(cfg.Dir)
	case config.BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

var validKey = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

// StorageError represents a storage-related error.
// It can be compared using errors.Is.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrKeyNotFound is returned by Get for keys that were never set.
	ErrKeyNotFound = &StorageError{Message: "key not found"}
	// ErrInvalidKey is returned for keys outside [a-z0-9_].
	ErrInvalidKey = &StorageError{Message: "invalid key"}
	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = &StorageError{Message: "storage unavailable"}
	// ErrWatchUnsupported is returned by backends that cannot observe other writers.
	ErrWatchUnsupported = &StorageError{Message: "watch not supported"}
)
