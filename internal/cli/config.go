// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/darty-tutor/darty/internal/config"
	"github.com/darty-tutor/darty/internal/layout"
)

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the configuration or store the service API key",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return toml.NewEncoder(a.out).Encode(a.cfg)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := a.configFile()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, path)
				return nil
			},
		},
		newConfigInitCommand(a),
		newSetKeyCommand(a),
	)
	return cmd
}

func (a *app) configFile() (string, error) {
	if a.opts.configPath != "" {
		return a.opts.configPath, nil
	}
	path, err := config.ConfigPath()
	if err != nil {
		return "", &CommandError{Command: "config", Action: "locate", Err: err}
	}
	return path, nil
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &UsageError{Reason: path + " already exists", Example: "darty config init --force"}
			}
			if err := config.Save(a.cfg, path); err != nil {
				return &CommandError{Command: "config", Action: "save", Err: err}
			}
			fmt.Fprintln(a.out, SuccessStyle.Render("wrote")+" "+path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newSetKeyCommand(a *app) *cobra.Command {
	var initialize bool
	cmd := &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the generation API key on the tutor service",
		Long: `Store the generation API key on the tutor service.

Without an argument the key is read from the terminal without echo, or
from stdin when it is not a terminal. Passing the key as an argument
leaves it in your shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				var err error
				if key, err = a.readSecret("API key: "); err != nil {
					return err
				}
			}
			msg, err := a.client.SaveAPIKey(cmd.Context(), key)
			if err != nil {
				return serviceError(err, a.client.BaseURL())
			}
			a.done(msg, "API key saved")
			if !initialize {
				return nil
			}
			msg, err = a.client.Initialize(cmd.Context())
			if err != nil {
				return serviceError(err, a.client.BaseURL())
			}
			a.done(msg, "tutor initialized")
			return nil
		},
	}
	cmd.Flags().BoolVar(&initialize, "init", true, "initialize the tutor after saving the key")
	return cmd
}

// readSecret reads one line without echo on a terminal, or from the
// command's input otherwise.
func (a *app) readSecret(prompt string) (string, error) {
	if a.terminal() {
		fmt.Fprint(a.errOut, prompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", &CommandError{Command: "config", Action: "read key", Err: err}
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", &UsageError{Reason: "no key on stdin", Example: "echo $KEY | darty config set-key"}
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

func newPrefsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or set the saved theme and language",
		Long: `Show or set the saved theme and language. These are the same
preferences the full-screen interface toggles, and running instances
pick up changes.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.openStore()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(a.out, statusLine("theme", string(a.layout.Theme())))
			fmt.Fprintln(a.out, statusLine("lang", string(a.layout.Language())))
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:       "theme [light|dark]",
			Short:     "Set the theme, or switch it when no value is given",
			Args:      cobra.MaximumNArgs(1),
			ValidArgs: []string{string(layout.Light), string(layout.Dark)},
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := setTheme(a.layout, firstArg(args)); err != nil {
					return err
				}
				fmt.Fprintln(a.out, statusLine("theme", string(a.layout.Theme())))
				return nil
			},
		},
		&cobra.Command{
			Use:       "lang [ar|en]",
			Short:     "Set the language, or switch it when no value is given",
			Args:      cobra.MaximumNArgs(1),
			ValidArgs: []string{string(layout.Arabic), string(layout.English)},
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := setLanguage(a.layout, firstArg(args)); err != nil {
					return err
				}
				fmt.Fprintln(a.out, statusLine("lang", string(a.layout.Language())))
				return nil
			},
		},
	)
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// setTheme sets the named theme, or toggles when name is empty.
func setTheme(lay *layout.Controller, name string) error {
	if name == "" {
		return lay.ToggleTheme()
	}
	t, ok := layout.ParseTheme(name)
	if !ok {
		return &UsageError{Reason: "unknown theme " + name, Example: "darty prefs theme dark"}
	}
	return lay.SetTheme(t)
}

// setLanguage sets the named language, or toggles when name is empty.
func setLanguage(lay *layout.Controller, name string) error {
	if name == "" {
		return lay.ToggleLanguage()
	}
	l, ok := layout.ParseLanguage(name)
	if !ok {
		return &UsageError{Reason: "unsupported language " + name, Example: "darty prefs lang ar"}
	}
	return lay.SetLanguage(l)
}
