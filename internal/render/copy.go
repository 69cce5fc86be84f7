// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"errors"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// CopyRevertDelay is how long a copy control shows its "copied" label.
const CopyRevertDelay = 2 * time.Second

// ErrUnknownBlock is returned when copying a block that was never rendered.
var ErrUnknownBlock = errors.New("unknown code block")

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteAll copies text to the OS clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// CopyToken identifies one copy action so that its revert can be matched
// against later copies of the same block.
type CopyToken struct {
	BlockID string
	Gen     uint64
}

// CopyTracker remembers the raw text of rendered code blocks and which of
// them currently show "copied". Blocks are independent of each other.
type CopyTracker struct {
	mu     sync.Mutex
	clip   Clipboard
	raw    map[string]string
	copied map[string]uint64
	gen    uint64
}

// NewCopyTracker returns a tracker writing to clip.
func NewCopyTracker(clip Clipboard) *CopyTracker {
	if clip == nil {
		clip = SystemClipboard{}
	}
	return &CopyTracker{
		clip:   clip,
		raw:    make(map[string]string),
		copied: make(map[string]uint64),
	}
}

// Register records the raw text of a rendered block.
func (t *CopyTracker) Register(blockID, raw string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw[blockID] = raw
}

// Raw returns the unescaped text of a block.
func (t *CopyTracker) Raw(blockID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.raw[blockID]
	return s, ok
}

// Copy writes the block's raw text to the clipboard and marks it copied.
// The caller schedules Revert(token) after CopyRevertDelay.
func (t *CopyTracker) Copy(blockID string) (CopyToken, error) {
	t.mu.Lock()
	raw, ok := t.raw[blockID]
	t.mu.Unlock()
	if !ok {
		return CopyToken{}, ErrUnknownBlock
	}

	if err := t.clip.WriteAll(raw); err != nil {
		return CopyToken{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.copied[blockID] = t.gen
	return CopyToken{BlockID: blockID, Gen: t.gen}, nil
}

// Revert clears the copied state set by tok. A revert from an earlier copy
// of the same block is ignored. It reports whether anything changed.
func (t *CopyTracker) Revert(tok CopyToken) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen, ok := t.copied[tok.BlockID]; !ok || gen != tok.Gen {
		return false
	}
	delete(t.copied, tok.BlockID)
	return true
}

// Copied reports whether blockID currently shows its copied label.
func (t *CopyTracker) Copied(blockID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.copied[blockID]
	return ok
}

// Label picks the label for blockID's copy control.
func (t *CopyTracker) Label(blockID, copyLabel, copiedLabel string) string {
	if t.Copied(blockID) {
		return copiedLabel
	}
	return copyLabel
}

// Reset forgets every block, for when the rendered conversation is replaced.
func (t *CopyTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw = make(map[string]string)
	t.copied = make(map[string]uint64)
}
