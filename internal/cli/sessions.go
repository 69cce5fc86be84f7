// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/export"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/ui/components"
	"github.com/darty-tutor/darty/internal/util"
)

// minPrefix is the shortest ID prefix accepted as a session reference.
const minPrefix = 4

func newSessionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "s"},
		Short:   "Manage saved conversations",
		Long: `List, show, rename, delete and export saved conversations.

A conversation is referenced by its position in "sessions list", its ID,
or an ID prefix of at least four characters.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.openStore()
		},
	}
	cmd.AddCommand(
		newSessionsListCommand(a),
		newSessionsShowCommand(a),
		newSessionsRenameCommand(a),
		newSessionsDeleteCommand(a),
		newSessionsExportCommand(a),
	)
	return cmd
}

// sessionSummary is the JSON form of a list entry.
type sessionSummary struct {
	Index     int       `json:"index"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  int       `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	Active    bool      `json:"active"`
}

func newSessionsListCommand(a *app) *cobra.Command {
	var (
		query  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := a.store.List()
			list := all
			if query != "" {
				list = a.store.Search(query)
			}
			if !asJSON {
				printSessionList(a.out, list, all, a.store.ActiveID())
				return nil
			}
			out := make([]sessionSummary, 0, len(list))
			for _, s := range list {
				out = append(out, sessionSummary{
					Index:     indexOf(all, s.ID) + 1,
					ID:        s.ID,
					Title:     s.Title,
					Messages:  len(s.Messages),
					CreatedAt: s.CreatedAt,
					Active:    s.ID == a.store.ActiveID(),
				})
			}
			return writeJSON(a.out, out)
		},
	}
	cmd.Flags().StringVarP(&query, "search", "q", "", "only conversations whose title or messages contain this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newSessionsShowCommand(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := resolveSession(a.store.List(), args[0])
			if err != nil {
				return err
			}
			ctrl := controller.New(controller.Config{
				Store:    a.store,
				Tutor:    a.client,
				Renderer: render.NewRenderer(nil),
				Layout:   a.layout,
			})
			entries, err := ctrl.Entries(sess.ID)
			if err != nil {
				return err
			}
			p := newPrinter(a.out, !raw && a.terminal(), a.layout)
			fmt.Fprintln(a.out, TitleStyle.Render(components.Clean(sess.Title)))
			for _, e := range entries {
				p.entry(e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print replies without markdown formatting")
	return cmd
}

func newSessionsRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <session> <title...>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := resolveSession(a.store.List(), args[0])
			if err != nil {
				return err
			}
			ok, err := a.store.Rename(sess.ID, strings.Join(args[1:], " "))
			if err != nil {
				return &CommandError{Command: "sessions", Action: "rename", Err: err}
			}
			if !ok {
				return &UsageError{Reason: "title is empty", Example: `darty sessions rename 1 "Async basics"`}
			}
			fmt.Fprintln(a.out, SuccessStyle.Render("renamed")+" "+shortID(sess.ID))
			return nil
		},
	}
}

func newSessionsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <session>...",
		Aliases: []string{"rm"},
		Short:   "Delete conversations",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Resolve everything first so positions refer to the listing the
			// user saw.
			list := a.store.List()
			ids := make([]string, 0, len(args))
			for _, ref := range args {
				sess, err := resolveSession(list, ref)
				if err != nil {
					return err
				}
				ids = append(ids, sess.ID)
			}
			for _, id := range ids {
				if err := a.store.Delete(id); err != nil {
					return &CommandError{Command: "sessions", Action: "delete", Reason: shortID(id), Err: err}
				}
				fmt.Fprintln(a.out, SuccessStyle.Render("deleted")+" "+shortID(id))
			}
			return nil
		},
	}
}

func newSessionsExportCommand(a *app) *cobra.Command {
	var format, dir string
	cmd := &cobra.Command{
		Use:   "export <session>",
		Short: "Export a conversation to markdown, html or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := resolveSession(a.store.List(), args[0])
			if err != nil {
				return err
			}
			path, err := exportSession(&sess, format, dir, a.layout)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "markdown, html or json")
	cmd.Flags().StringVarP(&dir, "output", "o", ".", "output directory")
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveSession finds ref in list by 1-based position, exact ID or unique
// ID prefix.
func resolveSession(list []session.Session, ref string) (session.Session, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return session.Session{}, &UsageError{Reason: "missing conversation reference", Example: "darty sessions show 1"}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(list) {
			return list[n-1], nil
		}
		return session.Session{}, &NotFoundError{Resource: "conversation", ID: ref}
	}

	var match []session.Session
	for _, s := range list {
		if s.ID == ref {
			return s, nil
		}
		if len(ref) >= minPrefix && strings.HasPrefix(s.ID, ref) {
			match = append(match, s)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return session.Session{}, &NotFoundError{Resource: "conversation", ID: ref}
	default:
		return session.Session{}, &UsageError{Reason: fmt.Sprintf("%q matches %d conversations", ref, len(match))}
	}
}

func indexOf(list []session.Session, id string) int {
	for i, s := range list {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// printSessionList writes one line per session, marking the active one.
// Positions are those of the full list so they work with resolveSession
// even in filtered output.
func printSessionList(w io.Writer, list, all []session.Session, activeID string) {
	if len(list) == 0 {
		fmt.Fprintln(w, DimStyle.Render("no conversations"))
		return
	}
	for _, s := range list {
		marker := " "
		if s.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %3d  %s  %s  %s\n",
			marker,
			indexOf(all, s.ID)+1,
			ValueStyle.Render(util.FitWidth(components.Clean(s.Title), session.TitleMaxRunes+3)),
			DimStyle.Render(fmt.Sprintf("%3d msgs", len(s.Messages))),
			DimStyle.Render(s.CreatedAt.Local().Format("2006-01-02 15:04")+"  "+shortID(s.ID)),
		)
	}
}

// exportSession writes sess in format under dir using the current
// language and theme.
func exportSession(sess *session.Session, format, dir string, lay *layout.Controller) (string, error) {
	opts := export.DefaultOptions()
	opts.OutputDir = dir
	opts.Theme = lay.Theme()
	opts.Language = lay.Language()
	path, err := export.ExportSession(sess, strings.ToLower(format), opts)
	if err != nil {
		logger.Get().Error("export failed", "session", sess.ID, "format", format, "error", err)
		return "", &CommandError{Command: "sessions", Action: "export", Err: err}
	}
	logger.Get().Info("session exported", "session", sess.ID, "path", path)
	return path, nil
}
