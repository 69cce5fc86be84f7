// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns message text into safe, structured markup.
//
// Text is parsed into a Document before any markup exists. The parse runs a
// fixed sequence of rules:
//
//  1. fenced code blocks, cut out of the raw text first
//  2. heading lines (#, ##, ###)
//  3. bold spans (**x**)
//  4. inline code spans (`x`)
//  5. bullet lines (- x, * x), adjacent ones merged into one list
//  6. remaining newlines, which become line breaks
//
// Emitters walk the Document. HTML escapes every text segment as it is
// written, so text can never become structure. The terminal view renders
// the same Document in ui/components.
//
// # Key Types
//
//   - Document, Block, Inline: the intermediate representation
//   - Renderer: assigns code block IDs and emits HTML
//   - CopyTracker: per-block "copied" state for copy controls
package render
