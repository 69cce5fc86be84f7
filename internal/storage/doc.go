// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable key/value store darty keeps its
// client-side state in: the session collection and the two preferences.
//
// Each key holds one string value and is written whole; a Set either lands
// completely or not at all.
//
// # Backends
//
//   - FileStorage: one file per key under a directory, atomic writes,
//     optional change notifications via fsnotify
//   - SQLiteStorage: a single kv table in a SQLite database
//   - MemoryStorage: process-local, used for --ephemeral runs and tests
//
// # Usage
//
//	store, err := storage.Open(cfg.Storage)
//	raw, err := store.Get(storage.KeyChats)
//	err = store.Set(storage.KeyTheme, "dark")
package storage
