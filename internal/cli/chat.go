// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/darty-tutor/darty/internal/config"
	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/util"
)

// replayLimit caps how many earlier messages are printed when a
// conversation is opened.
const replayLimit = 10

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-oriented chat with input history",
		Long: `Chat with the tutor one line at a time.

End a line with \ to continue it, or open a fenced code block with
three backticks to paste several lines. Type /help for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd.Context())
		},
	}
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line per prompt.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linerReader adds line editing and persistent history on a terminal.
type linerReader struct {
	state       *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{state: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		r.state.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	input, err := r.state.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.state.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			r.state.WriteHistory(f)
			f.Close()
		}
	}
	return r.state.Close()
}

// scanReader reads piped input. It prints no prompts.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &scanReader{sc: sc}
}

func (r *scanReader) Prompt(string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// readMessage reads one message. A trailing backslash continues the line
// and an unclosed ``` fence keeps reading until it closes or input ends.
func readMessage(r lineReader, prompt, more string) (string, error) {
	line, err := r.Prompt(prompt)
	if err != nil {
		return "", err
	}
	lines := []string{line}
	inFence := strings.Count(line, "```")%2 == 1
	for inFence || strings.HasSuffix(line, `\`) {
		if !inFence {
			lines[len(lines)-1] = strings.TrimSuffix(line, `\`)
		}
		line, err = r.Prompt(more)
		if err != nil {
			break
		}
		lines = append(lines, line)
		if strings.Count(line, "```")%2 == 1 {
			inFence = !inFence
		}
	}
	return strings.Join(lines, "\n"), nil
}

// =============================================================================
// VIEW
// =============================================================================

// replView prints what the controller shows. Indicators other than typing
// have no line-oriented counterpart.
type replView struct {
	controller.NopView
	p *printer

	shownID     string
	interactive bool
}

func (v *replView) SetTyping(on bool) {
	if on && v.interactive {
		v.p.notice(v.p.t(layout.KeyTyping))
	}
}

// ShowConversation prints the tail of a conversation when a different
// session becomes active.
func (v *replView) ShowConversation(sessionID string, entries []controller.Entry) {
	if sessionID == v.shownID {
		return
	}
	v.shownID = sessionID
	if len(entries) == 0 {
		v.p.notice(v.p.t(layout.KeyWelcome))
		return
	}
	if skipped := len(entries) - replayLimit; skipped > 0 {
		v.p.notice(fmt.Sprintf("(%d earlier messages)", skipped))
		entries = entries[skipped:]
	}
	for _, e := range entries {
		v.p.entry(e)
	}
}

// AppendEntry prints replies. The user's own input is already on screen.
func (v *replView) AppendEntry(sessionID string, e controller.Entry) {
	if e.Message.Sender == session.SenderUser {
		return
	}
	v.p.entry(e)
}

func (v *replView) Notify(text string) {
	fmt.Fprintln(v.p.out, WarningStyle.Render(text))
}

// =============================================================================
// REPL
// =============================================================================

// repl is one line-oriented chat.
type repl struct {
	a      *app
	ctrl   *controller.Controller
	view   *replView
	reader lineReader
	// lastDoc holds the code blocks of the most recent reply for /copy.
	lastDoc *render.Document
}

func (a *app) runChat(ctx context.Context) error {
	if err := a.openStore(); err != nil {
		return err
	}
	interactive := a.terminal()

	var reader lineReader
	if interactive {
		reader = newLinerReader()
	} else {
		reader = newScanReader(a.in)
	}
	defer reader.Close()

	p := newPrinter(a.out, interactive, a.layout)
	view := &replView{p: p, interactive: interactive}
	renderer := render.NewRenderer(render.NewCopyTracker(render.SystemClipboard{}))
	renderer.SetCopyLabel(a.layout.T(layout.KeyCopy))

	r := &repl{
		a:      a,
		reader: reader,
		view:   view,
		ctrl: controller.New(controller.Config{
			Store:    a.store,
			Tutor:    a.client,
			Renderer: renderer,
			Layout:   a.layout,
		}),
	}
	defer r.ctrl.Shutdown()

	if interactive {
		fmt.Fprintln(a.out, TitleStyle.Render(a.layout.T(layout.KeyAppTitle)))
		fmt.Fprintln(a.out, DimStyle.Render("/help · Ctrl+C"))
	}
	r.ctrl.SetView(view)
	return r.loop(ctx)
}

func (r *repl) loop(ctx context.Context) error {
	prompt, more := "", ""
	if r.view.interactive {
		prompt, more = "darty> ", "  ... "
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := readMessage(r.reader, prompt, more)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				if r.view.interactive {
					fmt.Fprintln(r.a.out)
				}
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		r.a.store.Reload()
		r.a.layout.Reload()

		if strings.HasPrefix(trimmed, "/") && !isTutorCommand(trimmed) {
			quit, err := r.meta(trimmed)
			if err != nil {
				fmt.Fprintf(r.a.errOut, "%s %v\n", ErrorStyle.Render("Error:"), err)
			}
			if quit {
				return nil
			}
			continue
		}
		r.send(ctx, trimmed)
	}
}

// send asks the tutor. Ctrl+C during the call stops it the way the Stop
// button does.
func (r *repl) send(ctx context.Context, input string) {
	callCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	out, err := r.ctrl.Send(callCtx, input)
	if err != nil {
		if !errors.Is(err, controller.ErrInputIgnored) && !errors.Is(err, controller.ErrRequestInFlight) {
			fmt.Fprintf(r.a.errOut, "%s %v\n", ErrorStyle.Render("Error:"), err)
		}
		return
	}
	if out.Message.Kind == session.KindNormal {
		doc := r.ctrl.Renderer().Document(out.Message.Content)
		r.lastDoc = &doc
	}
}

func isTutorCommand(input string) bool {
	name, _, _ := strings.Cut(input, " ")
	name, _, _ = strings.Cut(name, "\n")
	for _, c := range controller.Commands {
		if strings.EqualFold(name, c.Name) {
			return true
		}
	}
	return false
}

// =============================================================================
// META COMMANDS
// =============================================================================

// meta runs a client command. It reports whether the chat should end.
func (r *repl) meta(input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	out := r.a.out
	store := r.a.store
	before := store.ActiveID()
	defer func() {
		if store.ActiveID() != before {
			r.lastDoc = nil
		}
	}()

	switch strings.ToLower(name) {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help", "/h", "/?":
		r.help()

	case "/new":
		if _, err := r.ctrl.NewSession(); err != nil {
			return false, err
		}

	case "/sessions", "/history":
		printSessionList(out, store.List(), store.List(), store.ActiveID())

	case "/search":
		if arg == "" {
			return false, &UsageError{Reason: "search needs a query", Example: "/search widget"}
		}
		printSessionList(out, store.Search(arg), store.List(), store.ActiveID())

	case "/switch", "/open":
		sess, err := resolveSession(store.List(), arg)
		if err != nil {
			return false, err
		}
		return false, r.ctrl.SwitchSession(sess.ID)

	case "/rename":
		ok, err := r.ctrl.RenameSession(store.ActiveID(), arg)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, &UsageError{Reason: "title is empty", Example: "/rename Async basics"}
		}

	case "/delete":
		id := store.ActiveID()
		if arg != "" {
			sess, err := resolveSession(store.List(), arg)
			if err != nil {
				return false, err
			}
			id = sess.ID
		}
		if err := r.ctrl.DeleteSession(id); err != nil {
			return false, err
		}
		fmt.Fprintln(out, DimStyle.Render("deleted "+shortID(id)))

	case "/copy":
		return false, r.copy(arg)

	case "/export":
		format := arg
		if format == "" {
			format = "markdown"
		}
		sess := store.Active()
		path, err := exportSession(&sess, format, ".", r.a.layout)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, r.a.layout.T(layout.KeyExported)+" "+path)

	case "/lang":
		return false, setLanguage(r.a.layout, arg)

	case "/theme":
		if err := setTheme(r.a.layout, arg); err != nil {
			return false, err
		}
		r.view.p.theme = r.a.layout.Theme()
		r.view.p.md = nil

	case "/status":
		return false, r.a.printStatus(context.Background())

	default:
		return false, &UsageError{Reason: "unknown command " + name, Example: "/help"}
	}
	return false, nil
}

// copy puts code block n (1-based, default the last) of the latest reply
// on the clipboard.
func (r *repl) copy(arg string) error {
	if r.lastDoc == nil || len(r.lastDoc.CodeBlocks()) == 0 {
		return errors.New("the last reply has no code blocks")
	}
	blocks := r.lastDoc.CodeBlocks()
	n := len(blocks)
	if arg != "" {
		if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 || n > len(blocks) {
			return &UsageError{Reason: fmt.Sprintf("block must be 1-%d", len(blocks)), Example: "/copy 1"}
		}
	}
	if _, err := r.ctrl.Renderer().Tracker().Copy(blocks[n-1].ID); err != nil {
		logger.Get().Warn("clipboard write failed", "error", err)
		return err
	}
	fmt.Fprintln(r.a.out, SuccessStyle.Render(r.a.layout.T(layout.KeyCopied)))
	return nil
}

func (r *repl) help() {
	out := r.a.out
	fmt.Fprintln(out, TitleStyle.Render("Tutor commands"))
	for _, c := range controller.Commands {
		fmt.Fprintf(out, "  %-12s %s\n", c.Name, c.Help)
	}
	fmt.Fprintln(out, TitleStyle.Render("Chat commands"))
	for _, h := range [][2]string{
		{"/new", "start a new conversation"},
		{"/sessions", "list conversations"},
		{"/search q", "find conversations containing q"},
		{"/switch n", "open conversation n, an ID or ID prefix"},
		{"/rename t", "rename this conversation"},
		{"/delete [n]", "delete this or another conversation"},
		{"/copy [n]", "copy a code block from the last reply"},
		{"/export [f]", "save this conversation (markdown, html, json)"},
		{"/lang [l]", "switch or set the language (ar, en)"},
		{"/theme [t]", "switch or set the theme (light, dark)"},
		{"/status", "show the tutor service status"},
		{"/quit", "leave"},
	} {
		fmt.Fprintf(out, "  %-12s %s\n", h[0], h[1])
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func shortID(id string) string {
	if util.RuneLen(id) > 8 {
		return id[:8]
	}
	return id
}
