// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a session transcript to a file.
//
// # Supported Formats
//
//   - JSON: the stored session record, unchanged
//   - Markdown: messages as written, with role headings
//   - HTML: a standalone page rendered with the render package
//
// HTML transcripts keep the two directions apart: the page chrome follows
// the interface language while the conversation element is always
// dir="rtl".
//
// # Usage
//
//	path, err := export.ExportSession(&sess, "html", &export.Options{
//	    OutputDir: ".",
//	    Language:  layout.English,
//	})
package export
