// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/tutor"
	"github.com/darty-tutor/darty/internal/ui/components"
)

// =============================================================================
// STATUS
// =============================================================================

func newStatusCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the tutor service is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				st, err := a.client.Status(cmd.Context())
				if err != nil {
					return serviceError(err, a.client.BaseURL())
				}
				return writeJSON(a.out, st)
			}
			return a.printStatus(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func (a *app) printStatus(ctx context.Context) error {
	st, err := a.client.Status(ctx)
	if err != nil {
		return serviceError(err, a.client.BaseURL())
	}
	out := a.out
	fmt.Fprintln(out, TitleStyle.Render("Tutor service"))
	fmt.Fprintln(out, statusLine("Server", a.client.BaseURL()))
	fmt.Fprintln(out, statusLine("API key", check(st.APIKeyConfigured)))
	fmt.Fprintln(out, statusLine("Initialized", check(st.TutorInitialized)))
	fmt.Fprintln(out, statusLine("Docs loaded", check(st.ContextLoaded)))
	fmt.Fprintln(out, statusLine("Cache", fmt.Sprintf("%d items, %.2f MB",
		st.CacheStats.TotalItems, st.CacheStats.TotalSizeMB)))
	if !st.Ready() {
		fmt.Fprintln(out)
		switch {
		case !st.APIKeyConfigured:
			fmt.Fprintln(out, WarningStyle.Render("Not ready.")+" Run: darty config set-key")
		default:
			fmt.Fprintln(out, WarningStyle.Render("Not ready.")+" Run: darty init")
		}
	}
	return nil
}

// =============================================================================
// MAINTENANCE
// =============================================================================

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the tutor with the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := a.client.Initialize(cmd.Context())
			if err != nil {
				return serviceError(err, a.client.BaseURL())
			}
			a.done(msg, "tutor initialized")
			return nil
		},
	}
}

func newSyncCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the tutor's Dart and Flutter documentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(a.errOut, DimStyle.Render("fetching documentation..."))
			res, err := a.client.ScrapeDocumentation(cmd.Context())
			if err != nil {
				return serviceError(err, a.client.BaseURL())
			}
			a.done(res.Message, "documentation updated")
			fmt.Fprintln(a.out, statusLine("Context", fmt.Sprintf("%d characters", res.ContextLength)))
			if res.CacheStats != nil {
				fmt.Fprintln(a.out, statusLine("Cache", fmt.Sprintf("%d items, %.2f MB",
					res.CacheStats.TotalItems, res.CacheStats.TotalSizeMB)))
			}
			logger.Get().Info("documentation synced", "context_length", res.ContextLength)
			return nil
		},
	}
}

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the tutor's documentation cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the documentation cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := a.client.ClearCache(cmd.Context())
			if err != nil {
				return serviceError(err, a.client.BaseURL())
			}
			a.done(msg, "cache cleared")
			return nil
		},
	})
	return cmd
}

// done prints the server's message, or fallback when it sent none.
func (a *app) done(msg, fallback string) {
	if msg == "" {
		msg = fallback
	}
	fmt.Fprintln(a.out, SuccessStyle.Render("✓")+" "+components.Clean(msg))
}

// serviceError adds a hint to errors that mean the service is down.
func serviceError(err error, server string) error {
	if err == nil {
		return nil
	}
	if _, ok := tutor.ServerMessage(err); ok {
		return err
	}
	return fmt.Errorf("%w (is the tutor service running at %s?)", err, server)
}
