// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"html"
	"strconv"
	"strings"
)

// DefaultCopyLabel is the copy control's label when none is configured.
const DefaultCopyLabel = "Copy"

// HTML emits markup for doc. Code blocks without an ID are numbered by
// position.
func HTML(doc Document) string {
	return writeHTML(doc, DefaultCopyLabel)
}

func writeHTML(doc Document, copyLabel string) string {
	var b strings.Builder
	n := 0
	for _, blk := range doc.Blocks {
		switch blk.Kind {
		case BlockCode:
			n++
			id := blk.ID
			if id == "" {
				id = "code-" + strconv.Itoa(n)
			}
			writeCode(&b, blk, id, copyLabel)
		case BlockHeading:
			tag := "h" + strconv.Itoa(blk.Level)
			b.WriteString("<" + tag + ">")
			writeInlines(&b, blk.Inlines)
			b.WriteString("</" + tag + ">")
		case BlockList:
			b.WriteString("<ul>")
			for _, item := range blk.Items {
				b.WriteString("<li>")
				writeInlines(&b, item)
				b.WriteString("</li>")
			}
			b.WriteString("</ul>")
		default:
			writeInlines(&b, blk.Inlines)
		}
	}
	return b.String()
}

func writeCode(b *strings.Builder, blk Block, id, copyLabel string) {
	attrID := html.EscapeString(id)
	b.WriteString(`<div class="code-block" data-block-id="` + attrID + `">`)
	b.WriteString(`<div class="code-header">`)
	if blk.Lang != "" {
		b.WriteString(`<span class="code-lang">` + html.EscapeString(blk.Lang) + `</span>`)
	}
	b.WriteString(`<button class="copy-btn" data-copy-target="` + attrID + `">` + html.EscapeString(copyLabel) + `</button>`)
	b.WriteString(`</div><pre><code`)
	if blk.Lang != "" {
		b.WriteString(` class="language-` + html.EscapeString(blk.Lang) + `"`)
	}
	b.WriteString(">")
	b.WriteString(html.EscapeString(blk.Code))
	b.WriteString("</code></pre></div>")
}

func writeInlines(b *strings.Builder, in []Inline) {
	for _, n := range in {
		switch n.Kind {
		case InlineBold:
			b.WriteString("<strong>")
			writeInlines(b, n.Children)
			b.WriteString("</strong>")
		case InlineCode:
			b.WriteString("<code>" + html.EscapeString(n.Text) + "</code>")
		case InlineBreak:
			b.WriteString("<br>")
		default:
			b.WriteString(html.EscapeString(n.Text))
		}
	}
}

// EscapeText escapes s and turns its newlines into line breaks.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}
