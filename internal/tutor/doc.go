// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tutor provides the HTTP client for the Darty tutor service.
//
// The service answers Dart and Flutter questions. Every endpoint speaks a
// small JSON envelope: {"success": bool, "message": string, ...}. A
// response with success=false is reported as a *ServerError carrying the
// server's message verbatim, whatever the HTTP status. Transport and decode
// failures are reported as a *ClientError with an ErrorType.
//
// # Key Types
//
//   - Client: the API client, safe for concurrent use
//   - ClientConfig: base URL, timeouts and request pacing
//   - ServerError: a failure the server reported itself
//   - ClientError: a failure reaching or understanding the server
//
// # Usage
//
//	client := tutor.NewClientWithConfig(tutor.FromConfig(cfg.Server))
//	answer, err := client.Ask(ctx, "what is a widget")
//	if msg, ok := tutor.ServerMessage(err); ok {
//	    // show msg as an error entry
//	}
package tutor
