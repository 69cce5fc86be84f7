// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/request"
	"github.com/darty-tutor/darty/internal/tutor"
)

// maxInputBytes bounds a question read from a file or stdin.
const maxInputBytes = 256 << 10

type askOptions struct {
	tool string
	file string
	raw  bool
	save bool
}

func newAskCommand(a *app) *cobra.Command {
	var o askOptions
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask one question and print the answer",
		Long: `Ask the tutor one question and print the answer.

The question comes from the arguments, a file, or stdin. A leading
/analyze, /exercises or /explain selects that tool, as in the chat.

Examples:
  darty ask "How do I cancel a Stream subscription?"
  darty ask /explain isolates
  darty ask --tool analyze --file lib/main.dart
  cat widget.dart | darty ask --tool analyze
  darty ask --save "What is a mixin?"     # keep it in the history`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd.Context(), o, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.tool, "tool", "t", "", "ask, analyze, exercises or explain")
	f.StringVarP(&o.file, "file", "f", "", "append the contents of this file to the question")
	f.BoolVar(&o.raw, "raw", false, "print the answer without markdown formatting")
	f.BoolVar(&o.save, "save", false, "record the exchange as a new conversation")
	return cmd
}

// parseTool maps a --tool value to a tool.
func parseTool(name string) (controller.Tool, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/")) {
	case "", "ask":
		return controller.ToolAsk, nil
	case "analyze", "analyze-code", "code":
		return controller.ToolAnalyze, nil
	case "exercises", "generate-exercises", "practice":
		return controller.ToolExercises, nil
	case "explain", "explain-concept", "concept":
		return controller.ToolExplain, nil
	}
	return 0, &UsageError{Reason: "unknown tool " + name, Example: "darty ask --tool explain closures"}
}

// commandFor is the slash command that selects tool in the chat.
func commandFor(tool controller.Tool) string {
	for _, c := range controller.Commands {
		if c.Tool == tool {
			return c.Name
		}
	}
	return ""
}

func readLimited(r io.Reader, what string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return "", &CommandError{Command: "ask", Action: "read", Reason: what, Err: err}
	}
	if len(data) > maxInputBytes {
		return "", &UsageError{Reason: fmt.Sprintf("%s is larger than %d KiB", what, maxInputBytes>>10)}
	}
	return string(data), nil
}

func (a *app) askInput(o askOptions, args []string) (string, error) {
	input := strings.TrimSpace(strings.Join(args, " "))
	if o.file != "" {
		f, err := os.Open(o.file)
		if err != nil {
			return "", &CommandError{Command: "ask", Action: "read", Reason: o.file, Err: err}
		}
		defer f.Close()
		data, err := readLimited(f, o.file)
		if err != nil {
			return "", err
		}
		if input != "" {
			input += "\n\n"
		}
		input += data
	}
	if input == "" && !a.terminal() {
		data, err := readLimited(a.in, "stdin")
		if err != nil {
			return "", err
		}
		input = data
	}
	return strings.TrimSpace(input), nil
}

func (a *app) runAsk(ctx context.Context, o askOptions, args []string) error {
	input, err := a.askInput(o, args)
	if err != nil {
		return err
	}

	tool, text := controller.ParseCommand(input)
	if o.tool != "" {
		if tool, err = parseTool(o.tool); err != nil {
			return err
		}
		text = input
	}
	if text == "" {
		return &UsageError{Reason: "nothing to ask", Example: `darty ask "What is a Future?"`}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if o.save {
		return a.askAndSave(ctx, o, tool, text)
	}

	answer, err := tool.Asker(a.client)(ctx, text)
	if err != nil {
		return err
	}
	a.answerPrinter(o).reply(answer)
	return nil
}

// askAndSave sends through a controller so the exchange lands in the
// history like any chat turn. An unused active session is reused.
func (a *app) askAndSave(ctx context.Context, o askOptions, tool controller.Tool, text string) error {
	if err := a.openStore(); err != nil {
		return err
	}
	ctrl := controller.New(controller.Config{Store: a.store, Tutor: a.client, Layout: a.layout})
	if a.store.Active().HasUserMessage() {
		if _, err := ctrl.NewSession(); err != nil {
			return err
		}
	}

	question := text
	if tool != controller.ToolAsk {
		question = commandFor(tool) + " " + text
	}
	out, err := ctrl.Send(ctx, question)
	if err != nil {
		return err
	}

	switch out.Kind {
	case request.Success:
		a.answerPrinter(o).reply(out.Message.Content)
		return nil
	case request.ServerError:
		return &tutor.ServerError{Message: out.Message.Content}
	case request.NetworkError:
		return &tutor.ClientError{Type: tutor.ErrTypeConnection, Message: out.Message.Content}
	default:
		return tutor.ErrCanceled
	}
}

func (a *app) answerPrinter(o askOptions) *printer {
	markdown := !o.raw && IsStdoutTTY()
	if a.layout != nil {
		return newPrinter(a.out, markdown, a.layout)
	}
	p := newPrinter(a.out, false, nil)
	if markdown {
		p.markdown = true
		p.width = wrapWidth()
		if a.cfg.UI.Theme == string(layout.Dark) {
			p.theme = layout.Dark
		}
	}
	return p
}
