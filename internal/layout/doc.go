// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package layout holds presentation state: theme, interface language,
// reading direction and the resizable session panel.
//
// Two directions are tracked separately. Chrome direction follows the
// interface language (right-to-left for Arabic) and decides which side the
// session panel docks to. Content direction applies to the conversation
// itself and is always right-to-left, whatever the interface language.
//
// # Key Types
//
//   - Controller: persisted theme and language, translations, directions
//   - Panel: drag-to-resize width and collapse state of the session list
package layout
