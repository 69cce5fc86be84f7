// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/darty-tutor/darty/internal/util"
)

// FileStorage keeps each key in its own file under Dir.
type FileStorage struct {
	Dir string

	mu sync.Mutex
	// written holds a digest of the last value this process wrote per key so
	// Watch can skip our own writes.
	written map[string][32]byte
}

// NewFileStorage creates dir if needed and returns a store rooted there.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrUnavailable)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &FileStorage{Dir: dir, written: make(map[string][32]byte)}, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.Dir, key)
}

// Get reads the file for key.
func (s *FileStorage) Get(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(data), nil
}

// Set atomically replaces the file for key.
func (s *FileStorage) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := util.AtomicWriteFile(s.path(key), []byte(value), 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.written[key] = sha256.Sum256([]byte(value))
	return nil
}

// Delete removes the file for key.
func (s *FileStorage) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.written, key)
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op for files.
func (s *FileStorage) Close() error { return nil }

// Watch reports keys changed by other processes. Writes made through this
// FileStorage are filtered out by content digest.
func (s *FileStorage) Watch(ctx context.Context, fn func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.Dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// The atomic rename shows up as Create on the target name.
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}
				key := filepath.Base(event.Name)
				if checkKey(key) != nil {
					continue
				}
				if s.isOwnWrite(key) {
					continue
				}
				fn(key)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func (s *FileStorage) isOwnWrite(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	want, ok := s.written[key]
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		// Our own deletes drop the digest, so a missing file is always news.
		return false
	}
	return ok && sha256.Sum256(data) == want
}
