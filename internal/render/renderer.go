// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strconv"
	"sync"
)

// Renderer numbers code blocks uniquely across every message it renders
// and registers them with an optional CopyTracker.
type Renderer struct {
	mu        sync.Mutex
	next      int
	copyLabel string
	tracker   *CopyTracker
}

// NewRenderer returns a renderer. tracker may be nil.
func NewRenderer(tracker *CopyTracker) *Renderer {
	return &Renderer{copyLabel: DefaultCopyLabel, tracker: tracker}
}

// SetCopyLabel sets the copy control's label, which is chrome text and
// follows the interface language.
func (r *Renderer) SetCopyLabel(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copyLabel = label
}

// Tracker returns the copy tracker, which may be nil.
func (r *Renderer) Tracker() *CopyTracker {
	return r.tracker
}

// Document parses text and assigns block IDs.
func (r *Renderer) Document(text string) Document {
	doc := Parse(text)

	r.mu.Lock()
	for _, blk := range doc.CodeBlocks() {
		r.next++
		blk.ID = "code-" + strconv.Itoa(r.next)
	}
	r.mu.Unlock()

	if r.tracker != nil {
		for _, blk := range doc.CodeBlocks() {
			r.tracker.Register(blk.ID, blk.Code)
		}
	}
	return doc
}

// Render returns safe markup for an assistant message.
func (r *Renderer) Render(text string) string {
	doc := r.Document(text)
	r.mu.Lock()
	label := r.copyLabel
	r.mu.Unlock()
	return writeHTML(doc, label)
}

// RenderUser returns markup for a user message: escaped text with line
// breaks and no other structure.
func (r *Renderer) RenderUser(text string) string {
	return EscapeText(text)
}

// RenderError returns markup for a failure reported in the conversation.
func (r *Renderer) RenderError(text string) string {
	return `<div class="error-message">` + EscapeText(text) + `</div>`
}

// RenderNotice returns markup for a client notice such as the stop notice.
func (r *Renderer) RenderNotice(text string) string {
	return `<div class="notice-message">` + EscapeText(text) + `</div>`
}
