// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AskRequest is the body of POST /api/tutor/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AnalyzeCodeRequest is the body of POST /api/tutor/analyze-code.
type AnalyzeCodeRequest struct {
	Code string `json:"code"`
}

// GenerateExercisesRequest is the body of POST /api/tutor/generate-exercises.
type GenerateExercisesRequest struct {
	Topic string `json:"topic"`
}

// ExplainConceptRequest is the body of POST /api/tutor/explain-concept.
type ExplainConceptRequest struct {
	Concept string `json:"concept"`
}

// SaveAPIKeyRequest is the body of POST /api/config/save-api-key.
type SaveAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Envelope is the part shared by every mutating endpoint's response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (e Envelope) envelope() Envelope { return e }

type enveloped interface {
	envelope() Envelope
}

// AskResponse is returned by the ask endpoint.
type AskResponse struct {
	Envelope
	Answer string `json:"answer"`
}

// AnalyzeCodeResponse is returned by the analyze-code endpoint.
type AnalyzeCodeResponse struct {
	Envelope
	Analysis string `json:"analysis"`
}

// GenerateExercisesResponse is returned by the generate-exercises endpoint.
type GenerateExercisesResponse struct {
	Envelope
	Exercises string `json:"exercises"`
}

// ExplainConceptResponse is returned by the explain-concept endpoint.
type ExplainConceptResponse struct {
	Envelope
	Explanation string `json:"explanation"`
}

// ScrapeResponse is returned by the documentation sync endpoint.
type ScrapeResponse struct {
	Envelope
	CacheStats    *CacheStats `json:"cache_stats,omitempty"`
	ContextLength int         `json:"context_length,omitempty"`
}

// CacheStats describes the server's documentation cache.
type CacheStats struct {
	TotalItems     int     `json:"total_items"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	TotalSizeMB    float64 `json:"total_size_mb"`
}

// Status is returned by GET /api/status. It has no envelope.
type Status struct {
	APIKeyConfigured bool       `json:"api_key_configured"`
	TutorInitialized bool       `json:"tutor_initialized"`
	ContextLoaded    bool       `json:"context_loaded"`
	CacheStats       CacheStats `json:"cache_stats"`
}

// Ready reports whether the tutor can answer questions.
func (s *Status) Ready() bool {
	return s.APIKeyConfigured && s.TutorInitialized
}
