// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

// BlockKind identifies a block-level element.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockList
	BlockCode
)

// InlineKind identifies an inline element.
type InlineKind int

const (
	InlineText InlineKind = iota
	InlineBold
	InlineCode
	InlineBreak
)

// Inline is a run of text inside a block. Bold spans hold their content in
// Children; Text and Code spans hold raw, unescaped Text.
type Inline struct {
	Kind     InlineKind
	Text     string
	Children []Inline
}

// Block is one block-level element.
type Block struct {
	Kind BlockKind

	// Level is 1-3 for headings.
	Level int
	// Inlines is the content of paragraphs and headings.
	Inlines []Inline
	// Items holds one inline run per bullet of a list.
	Items [][]Inline

	// Lang, Code and ID describe a fenced code block. Code is raw text.
	Lang string
	Code string
	ID   string
}

// Document is parsed message text.
type Document struct {
	Blocks []Block
}

// CodeBlocks returns pointers to the document's code blocks in order.
func (d *Document) CodeBlocks() []*Block {
	var out []*Block
	for i := range d.Blocks {
		if d.Blocks[i].Kind == BlockCode {
			out = append(out, &d.Blocks[i])
		}
	}
	return out
}

// PlainText flattens inlines back to their visible text.
func PlainText(in []Inline) string {
	var b []byte
	for _, n := range in {
		switch n.Kind {
		case InlineBold:
			b = append(b, PlainText(n.Children)...)
		case InlineBreak:
			b = append(b, '\n')
		default:
			b = append(b, n.Text...)
		}
	}
	return string(b)
}
