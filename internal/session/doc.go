// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns darty's conversation sessions.
//
// A Store holds the ordered (newest-first) collection of sessions, tracks
// which one is active, and writes the whole collection to durable storage
// under storage.KeyChats after every mutation, before the mutating call
// returns.
//
// # Key Types
//
//   - Store: the session collection and its active pointer
//   - Session: one titled conversation thread
//   - Message: one append-only turn tagged by sender
//
// # Usage
//
//	store := session.NewStore(backend, session.WithDefaultTitle(func() string { return "محادثة جديدة" }))
//	store.Load()
//	err := store.AppendMessage(store.ActiveID(), session.UserMessage("what is a widget"))
package session
