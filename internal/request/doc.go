// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package request runs single-flight, cancellable calls to the tutor.
//
// A Lifecycle allows at most one outstanding call per session. A call is
// split into three steps so the blocking part can run off the UI goroutine:
//
//	call, err := lc.Start(sessionID) // UI goroutine: busy indicators on
//	defer lc.Settle(call)            // always: indicators back to idle
//	result := call.Do(question)      // may block; never touches indicators
//
// Cancellation is cooperative. Call.Cancel ends the call's context; the
// transport notices and Do resolves to an Aborted result. The remote side
// may keep working.
//
// # Key Types
//
//   - Lifecycle: per-session slots plus the indicator wiring
//   - Call: one outstanding request and its cancellation handle
//   - Result: the four-way outcome of a call
//   - Indicators: the display affordances a call toggles
package request
