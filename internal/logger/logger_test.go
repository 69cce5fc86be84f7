// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestInitWritesToFile(t *testing.T) {
	t.Cleanup(Close)
	path := filepath.Join(t.TempDir(), "logs", "darty.log")

	require.NoError(t, Init(path, slog.LevelInfo))
	assert.Equal(t, path, Path())

	Get().Info("session created", "id", "abc")
	Get().Debug("hidden at info level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session created")
	assert.NotContains(t, string(data), "hidden at info level")

	SetLevel(slog.LevelDebug)
	Get().Debug("now visible")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "now visible")
}

func TestCloseRevertsToDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "darty.log")
	require.NoError(t, Init(path, slog.LevelInfo))
	Close()

	assert.Empty(t, Path())
	// Must not panic after close.
	Get().Info("dropped")
}
