// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/darty-tutor/darty/internal/controller"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/render"
	"github.com/darty-tutor/darty/internal/storage"
	"github.com/darty-tutor/darty/internal/ui/chat"
)

func newTUICommand(a *app) *cobra.Command {
	var exportDir string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Full-screen interface with the conversation list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.exportDir = exportDir
			return a.runTUI(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory for Ctrl+E exports")
	return cmd
}

func (a *app) runTUI(ctx context.Context) error {
	if err := RequiresTTY("open the full-screen interface (try darty chat)"); err != nil {
		return err
	}
	if err := a.openStore(); err != nil {
		return err
	}

	ui := a.cfg.UI
	bounds := layout.PanelBounds{
		Min:           ui.PanelMinWidth,
		Max:           ui.PanelMaxWidth,
		CollapseBelow: ui.PanelCollapseBelow,
	}
	renderer := render.NewRenderer(render.NewCopyTracker(render.SystemClipboard{}))
	ctrl := controller.New(controller.Config{
		Store:    a.store,
		Tutor:    a.client,
		Renderer: renderer,
		Layout:   a.layout,
	})

	var watcher storage.Watcher
	if w, ok := a.backend.(storage.Watcher); ok {
		watcher = w
	}

	m := chat.New(chat.Options{
		Controller: ctrl,
		Layout:     a.layout,
		Panel:      layout.NewPanel(bounds, ui.PanelWidth, a.layout.PanelSide()),
		Service:    a.client,
		Watcher:    watcher,
		ExportDir:  a.exportDir,
	})
	defer m.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if ui.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	logger.Get().Info("interface started", "sessions", a.store.Len(), "watch", watcher != nil)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("interface failed: %w", err)
	}
	return nil
}
