// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"regexp"
	"strings"
)

const fence = "```"

var (
	headingLine = regexp.MustCompile(`^(#{1,3})\s+(.+?)\s*$`)
	bulletLine  = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)
	boldSpan    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	codeSpan    = regexp.MustCompile("`([^`\n]+)`")
	fenceLang   = regexp.MustCompile(`^[\w+#.-]*$`)
)

// Parse converts message text into a Document.
func Parse(text string) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var doc Document
	for _, seg := range splitFences(text) {
		if seg.code {
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockCode, Lang: seg.lang, Code: seg.text})
			continue
		}
		doc.Blocks = append(doc.Blocks, parseLines(seg.text)...)
	}
	return doc
}

// =============================================================================
// RULE 1: FENCED CODE
// =============================================================================

type segment struct {
	code bool
	lang string
	text string
}

// splitFences cuts fenced code out of text. An unclosed fence runs to the
// end of the text.
func splitFences(text string) []segment {
	var out []segment
	for {
		open := strings.Index(text, fence)
		if open < 0 {
			if text != "" {
				out = append(out, segment{text: text})
			}
			return out
		}
		if open > 0 {
			out = append(out, segment{text: text[:open]})
		}
		rest := text[open+len(fence):]

		lang := ""
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			if tag := strings.TrimSpace(rest[:nl]); fenceLang.MatchString(tag) {
				lang = tag
				rest = rest[nl+1:]
			}
		}

		body := rest
		text = ""
		if end := strings.Index(rest, fence); end >= 0 {
			body = rest[:end]
			text = rest[end+len(fence):]
		}
		out = append(out, segment{code: true, lang: lang, text: strings.TrimSuffix(body, "\n")})
	}
}

// =============================================================================
// RULES 2-6: LINES
// =============================================================================

func parseLines(text string) []Block {
	// Newlines touching a code fence belong to the fence, not to the text.
	text = strings.TrimPrefix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}

	var (
		blocks []Block
		para   []string
		items  [][]Inline
	)
	flushPara := func() {
		for len(para) > 0 && strings.TrimSpace(para[0]) == "" {
			para = para[1:]
		}
		for len(para) > 0 && strings.TrimSpace(para[len(para)-1]) == "" {
			para = para[:len(para)-1]
		}
		if len(para) == 0 {
			para = nil
			return
		}
		var inl []Inline
		for i, line := range para {
			if i > 0 {
				inl = append(inl, Inline{Kind: InlineBreak})
			}
			inl = append(inl, parseInline(line)...)
		}
		blocks = append(blocks, Block{Kind: BlockParagraph, Inlines: inl})
		para = nil
	}
	flushList := func() {
		if items == nil {
			return
		}
		blocks = append(blocks, Block{Kind: BlockList, Items: items})
		items = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingLine.FindStringSubmatch(line); m != nil {
			flushPara()
			flushList()
			blocks = append(blocks, Block{Kind: BlockHeading, Level: len(m[1]), Inlines: parseInline(m[2])})
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			flushPara()
			items = append(items, parseInline(m[1]))
			continue
		}
		flushList()
		para = append(para, line)
	}
	flushPara()
	flushList()
	return blocks
}

// parseInline applies bold, then inline code inside and around bold spans.
func parseInline(s string) []Inline {
	var out []Inline
	last := 0
	for _, m := range boldSpan.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, parseCodeSpans(s[last:m[0]])...)
		out = append(out, Inline{Kind: InlineBold, Children: parseCodeSpans(s[m[2]:m[3]])})
		last = m[1]
	}
	return append(out, parseCodeSpans(s[last:])...)
}

func parseCodeSpans(s string) []Inline {
	var out []Inline
	last := 0
	for _, m := range codeSpan.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			out = append(out, Inline{Kind: InlineText, Text: s[last:m[0]]})
		}
		out = append(out, Inline{Kind: InlineCode, Text: s[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(s) {
		out = append(out, Inline{Kind: InlineText, Text: s[last:]})
	}
	return out
}
