// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/session"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sessions to Markdown. Assistant replies are
// already Markdown and are written unchanged.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a session to Markdown.
func (e *MarkdownExporter) Export(sess *session.Session) ([]byte, error) {
	if sess == nil {
		return nil, errors.New("session is nil")
	}
	if len(sess.Messages) == 0 {
		return nil, errors.New("session has no messages")
	}
	lang := e.options.Language

	var sb strings.Builder
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(sess.Title)))
		sb.WriteString(fmt.Sprintf("id: %s\n", sess.ID))
		if !sess.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("date: %s\n", sess.CreatedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(sess.Messages)))
		sb.WriteString("generator: darty\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(sess.Title)))

	for i, msg := range sess.Messages {
		sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel(lang, msg.Sender)))
		content := strings.TrimSpace(msg.Content)
		switch {
		case msg.Sender == session.SenderUser:
			sb.WriteString(quoteLines(content, ""))
		case msg.Kind == session.KindError:
			sb.WriteString(quoteLines(content, "> **!** "))
		case msg.Kind == session.KindNotice:
			sb.WriteString("*" + escapeMarkdown(content) + "*")
		default:
			sb.WriteString(content)
		}
		sb.WriteString("\n\n")
		if i < len(sess.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*%s · %s*\n",
		layout.Translate(lang, layout.KeyAppTitle),
		formatTimestamp(e.options.now())))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// quoteLines prefixes the first line with first and the rest with "> "
// when first is a quote marker. User text is written escaped so it is not
// reinterpreted as Markdown.
func quoteLines(s, first string) string {
	if first == "" {
		return escapeMarkdown(s)
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
		} else {
			lines[i] = "> " + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"#", `\#`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"[", `\[`,
		"]", `\]`,
		"<", `\<`,
	)
	return r.Replace(s)
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
