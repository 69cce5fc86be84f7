// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller orchestrates a conversation: it appends messages to
// the session store, runs tutor calls through the request lifecycle and
// tells a View what to show.
//
// Sending is split for event-loop hosts:
//
//	p, err := c.Begin(question) // UI goroutine
//	res := p.Do()               // any goroutine, may block
//	c.Complete(p, res)          // UI goroutine
//
// Synchronous hosts call Send, which does all three.
//
// Every call that Begin accepts ends with exactly one assistant message:
// the answer, the server's error, the transport failure or the stop
// notice. Failures never escape as Go errors past Complete.
package controller
