// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/session"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports sessions to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options  *Options
	renderer *render.Renderer
	policy   *bluemonday.Policy
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	r := render.NewRenderer(nil)
	r.SetCopyLabel(layout.Translate(opts.Language, layout.KeyCopy))
	return &HTMLExporter{options: opts, renderer: r, policy: messagePolicy()}
}

// messagePolicy admits exactly the markup the renderer emits.
func messagePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br", "strong", "code", "pre", "ul", "li", "h1", "h2", "h3", "div", "span", "button")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z0-9 -]+$`)).OnElements("div", "span", "code", "button")
	p.AllowAttrs("data-block-id").Matching(regexp.MustCompile(`^code-[0-9]+$`)).OnElements("div")
	p.AllowAttrs("data-copy-target").Matching(regexp.MustCompile(`^code-[0-9]+$`)).OnElements("button")
	return p
}

// Export converts a session to HTML.
func (e *HTMLExporter) Export(sess *session.Session) ([]byte, error) {
	if sess == nil {
		return nil, errors.New("session is nil")
	}
	if len(sess.Messages) == 0 {
		return nil, errors.New("session has no messages")
	}
	lang := e.options.Language
	theme := e.options.Theme
	if theme == "" {
		theme = layout.Light
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(fmt.Sprintf("<html lang=\"%s\" dir=\"%s\">\n", lang, layout.DirectionOf(lang)))
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(sess.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"darty\">\n")
	if !sess.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", sess.CreatedAt.Format(time.RFC3339)))
	}
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(sess))
	}

	// Conversation content is right-to-left whatever the chrome language.
	sb.WriteString(fmt.Sprintf("        <main class=\"conversation\" dir=\"%s\">\n", layout.RTL))
	for _, msg := range sess.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>%s · %s</p>\n",
		html.EscapeString(layout.Translate(lang, layout.KeyAppTitle)),
		formatTimestamp(e.options.now())))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString(copyScript(layout.Translate(lang, layout.KeyCopied), render.CopyRevertDelay))
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(sess *session.Session) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(sess.Title)))
	sb.WriteString("            <div class=\"metadata\">\n")
	if !sess.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\">%s</span>\n", formatTimestamp(sess.CreatedAt)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\">%d</span>\n", len(sess.Messages)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg session.Message) string {
	var body, class string
	switch {
	case msg.Sender == session.SenderUser:
		body, class = e.renderer.RenderUser(msg.Content), "user-message"
	case msg.Kind == session.KindError:
		body, class = e.renderer.RenderError(msg.Content), "assistant-message"
	case msg.Kind == session.KindNotice:
		body, class = e.renderer.RenderNotice(msg.Content), "assistant-message"
	default:
		body, class = e.renderer.Render(msg.Content), "assistant-message"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("            <div class=\"message %s\">\n", class))
	sb.WriteString(fmt.Sprintf("                <div class=\"message-header\"><span class=\"role-label\">%s</span></div>\n",
		html.EscapeString(roleLabel(e.options.Language, msg.Sender))))
	sb.WriteString("                <div class=\"message-content\">")
	sb.WriteString(e.policy.Sanitize(body))
	sb.WriteString("</div>\n")
	sb.WriteString("            </div>\n")
	return sb.String()
}

// =============================================================================
// EMBEDDED CSS AND SCRIPT
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: "Noto Naskh Arabic", "Segoe UI", Roboto, Tahoma, Arial, sans-serif;
            --font-mono: "Fira Code", "Source Code Pro", Consolas, monospace;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --user-bg: #e8f0fe;
            --code-bg: #f6f8fa;
            --accent: #0175c2;
            --error: #d73a49;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --user-bg: #1f2335;
            --code-bg: #1a1b26;
            --accent: #54c5f8;
            --error: #f7768e;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.7;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 24px 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 24px; margin-bottom: 8px; }
        .metadata { display: flex; gap: 16px; font-size: 14px; color: var(--text-muted); }
        .conversation { padding: 24px 32px; text-align: start; }
        .message { margin-bottom: 20px; padding: 16px 20px; border-radius: 8px; border-inline-start: 4px solid transparent; }
        .user-message { background: var(--user-bg); border-inline-start-color: var(--accent); }
        .assistant-message { background: var(--bg-primary); border-inline-start-color: var(--border-color); }
        .message-header { font-size: 13px; font-weight: 600; color: var(--text-muted); margin-bottom: 8px; }
        .error-message { color: var(--error); }
        .notice-message { color: var(--text-muted); font-style: italic; }
        .message-content ul { padding-inline-start: 24px; margin: 8px 0; }

        .code-block { margin: 12px 0; border: 1px solid var(--border-color); border-radius: 8px; overflow: hidden; background: var(--code-bg); }
        .code-header { display: flex; justify-content: space-between; padding: 6px 12px; background: var(--bg-tertiary); font-size: 12px; }
        .code-block pre { padding: 12px 16px; overflow-x: auto; direction: ltr; text-align: left; }
        .code-block code, .message-content code { font-family: var(--font-mono); font-size: 14px; }
        .copy-btn { border: 1px solid var(--border-color); background: var(--bg-secondary); color: var(--text-primary); border-radius: 4px; padding: 2px 8px; cursor: pointer; }

        .footer { padding: 16px 32px; text-align: center; font-size: 13px; color: var(--text-muted); }

        @media print {
            .copy-btn { display: none; }
            .message { page-break-inside: avoid; }
        }
    </style>
`

// copyScript wires the copy buttons: copy the block's text, show the copied
// label, revert after delay. Each button reverts on its own timer.
func copyScript(copiedLabel string, delay time.Duration) string {
	label := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "<", `\x3c`, ">", `\x3e`).Replace(copiedLabel)
	return fmt.Sprintf(`    <script>
        document.querySelectorAll('.copy-btn').forEach(function (btn) {
            var original = btn.textContent;
            var timer = null;
            btn.addEventListener('click', function () {
                var block = document.querySelector('[data-block-id="' + btn.dataset.copyTarget + '"] code');
                if (!block) { return; }
                navigator.clipboard.writeText(block.textContent).then(function () {
                    btn.textContent = '%s';
                    clearTimeout(timer);
                    timer = setTimeout(function () { btn.textContent = original; }, %d);
                });
            });
        });
    </script>
`, label, delay.Milliseconds())
}
