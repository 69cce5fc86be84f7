// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the darty command line.
//
// Running darty with no arguments opens the full-screen interface when
// stdin and stdout are terminals, and a line-oriented chat otherwise.
// Subcommands cover one-shot questions, the saved conversation history,
// preferences and the tutor service's maintenance endpoints.
//
// # Key Types
//
//   - app: shared state built once per invocation (config, storage,
//     session store, tutor client)
//   - replView: the controller.View behind the line-oriented chat
//   - CommandError: a failed command with the action that failed
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
//
// # Commands
//
//   - tui: full-screen interface
//   - chat: line-oriented interface with history
//   - ask: one question, printed to stdout
//   - sessions: list, show, rename, delete and export saved conversations
//   - status, init, sync, cache clear: tutor service operations
//   - config: show the configuration or store the service API key
//   - prefs: read or set the persisted theme and language
package cli
