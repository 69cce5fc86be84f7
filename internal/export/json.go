// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"

	"github.com/darty-tutor/darty/internal/session"
)

// JSONExporter writes the session record exactly as it is stored, so an
// export can be inspected or re-imported.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter. JSON output ignores options.
func NewJSONExporter(*Options) *JSONExporter {
	return &JSONExporter{}
}

// Export converts a session to indented JSON.
func (e *JSONExporter) Export(sess *session.Session) ([]byte, error) {
	if sess == nil {
		return nil, errors.New("session is nil")
	}
	return json.MarshalIndent(sess, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
