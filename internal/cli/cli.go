// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/darty-tutor/darty/internal/config"
	"github.com/darty-tutor/darty/internal/layout"
	"github.com/darty-tutor/darty/internal/logger"
	"github.com/darty-tutor/darty/internal/session"
	"github.com/darty-tutor/darty/internal/storage"
	"github.com/darty-tutor/darty/internal/tutor"
	"github.com/darty-tutor/darty/internal/ui/components"
)

// Version information, set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// SHARED STATE
// =============================================================================

// rootOptions holds the persistent flags. Empty values leave the loaded
// configuration untouched.
type rootOptions struct {
	configPath string
	serverURL  string
	backend    string
	dataDir    string
	lang       string
	logLevel   string
	plain      bool
}

// app is what every command shares. setup fills cfg and client; the
// storage side is opened on first use by openStore.
type app struct {
	opts rootOptions

	cfg    *config.Config
	client *tutor.Client

	backend storage.Storage
	layout  *layout.Controller
	store   *session.Store

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// exportDir receives transcripts exported from the full-screen interface.
	exportDir string

	// isTerminal reports whether stdin and stdout are both terminals.
	isTerminal func() bool
}

func (a *app) setup(cmd *cobra.Command) error {
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	cfg, err := a.loadConfig()
	if err != nil {
		return &CommandError{Command: "config", Action: "load", Err: err}
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level)); err != nil {
		fmt.Fprintf(a.errOut, "%s logging disabled: %v\n", WarningStyle.Render("Warning:"), err)
	}
	config.SetGlobal(cfg)

	a.client = tutor.NewClientWithConfig(tutor.FromConfig(cfg.Server))
	logger.Get().Debug("command started", "command", cmd.CommandPath(), "server", a.client.BaseURL())
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.opts.configPath != "" {
		cfg, err = config.LoadOrDefault(a.opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if a.opts.serverURL != "" {
		cfg.Server.BaseURL = a.opts.serverURL
	}
	if a.opts.backend != "" {
		cfg.Storage.Backend = a.opts.backend
	}
	if a.opts.dataDir != "" {
		cfg.Storage.Dir = a.opts.dataDir
	}
	if a.opts.lang != "" {
		cfg.UI.Language = a.opts.lang
	}
	if a.opts.logLevel != "" {
		cfg.Log.Level = a.opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore opens the storage backend and loads preferences and sessions.
func (a *app) openStore() error {
	if a.store != nil {
		return nil
	}
	backend, err := storage.Open(a.cfg.Storage)
	if err != nil {
		return &CommandError{Command: "storage", Action: "open", Reason: a.cfg.Storage.Backend, Err: err}
	}
	a.backend = backend

	a.layout = layout.New(backend, layout.Defaults{
		Theme:    a.cfg.UI.Theme,
		Language: a.cfg.UI.Language,
	})
	a.layout.Load()

	a.store = session.NewStore(backend,
		session.WithLogger(logger.Get()),
		session.WithDefaultTitle(func() string { return a.layout.T(layout.KeyNewChat) }),
	)
	a.store.Load()
	return nil
}

func (a *app) close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			logger.Get().Warn("failed to close storage", "error", err)
		}
		a.backend = nil
	}
	logger.Close()
}

func (a *app) terminal() bool {
	if a.isTerminal != nil {
		return a.isTerminal()
	}
	return IsTTY() && IsStdoutTTY()
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "darty",
		Short: "Terminal client for the Darty Dart and Flutter tutor",
		Long: `darty talks to a Darty tutor service and keeps your conversations.

With no command it opens the full-screen interface on a terminal and a
line-oriented chat when input or output is redirected.

Examples:
  darty                                  # full-screen interface
  darty ask "What is a Future?"          # one question
  darty ask --tool analyze --file main.dart
  darty sessions list --search widget
  darty prefs lang en`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.opts.plain || !a.terminal() {
				return a.runChat(cmd.Context())
			}
			return a.runTUI(cmd.Context())
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("darty %s (commit %s, built %s)\n", Version, GitCommit, BuildDate))

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "config file (default ~/.darty/config.toml)")
	pf.StringVar(&a.opts.serverURL, "server", "", "tutor service base URL")
	pf.StringVar(&a.opts.backend, "storage", "", "storage backend: file, sqlite or memory")
	pf.StringVar(&a.opts.dataDir, "data-dir", "", "directory for stored conversations and preferences")
	pf.StringVar(&a.opts.lang, "lang", "", "interface language when none is saved: ar or en")
	pf.StringVar(&a.opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	root.Flags().BoolVar(&a.opts.plain, "plain", false, "use the line-oriented chat even on a terminal")

	root.AddCommand(
		newTUICommand(a),
		newChatCommand(a),
		newAskCommand(a),
		newSessionsCommand(a),
		newStatusCommand(a),
		newInitCommand(a),
		newSyncCommand(a),
		newCacheCommand(a),
		newConfigCommand(a),
		newPrefsCommand(a),
	)
	return root, a
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root, a := newRootCommand()
	defer a.close()

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), components.Clean(err.Error()))
		return ExitCode(err)
	}
	return ExitSuccess
}
