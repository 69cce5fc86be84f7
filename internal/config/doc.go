// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for darty.
//
// Configuration is read from ~/.darty/config.toml when present, layered over
// built-in defaults, then environment overrides are applied and the result
// is validated.
//
// # Environment Overrides
//
//   - DARTY_SERVER_URL: server.base_url
//   - DARTY_STORAGE_BACKEND: storage.backend (file, sqlite, memory)
//   - DARTY_DATA_DIR: storage.dir
//   - DARTY_LANG: ui.language
//   - DARTY_LOG_LEVEL: log.level
//
// # Usage
//
//	cfg, err := config.Load()
//	client := tutor.NewClientWithConfig(tutor.FromConfig(cfg.Server))
package config
