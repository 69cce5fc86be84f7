// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/darty-tutor/darty/internal/config"
	"github.com/darty-tutor/darty/internal/logger"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the tutor client.
type ClientConfig struct {
	// BaseURL is the tutor service base URL (default: http://localhost:5000)
	BaseURL string

	// Timeout bounds every request except the generation endpoints
	// (ask, analyze, exercises, explain), which run until canceled.
	Timeout time.Duration

	// RateLimit is requests per second; zero disables pacing.
	RateLimit float64

	// HTTPClient overrides the transport, for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   config.DefaultServerURL,
		Timeout:   30 * time.Second,
		RateLimit: 4,
	}
}

// FromConfig builds a client configuration from the server section.
func FromConfig(sc config.ServerConfig) *ClientConfig {
	cfg := DefaultConfig()
	if sc.BaseURL != "" {
		cfg.BaseURL = sc.BaseURL
	}
	if sc.TimeoutSecs > 0 {
		cfg.Timeout = time.Duration(sc.TimeoutSecs) * time.Second
	}
	cfg.RateLimit = sc.RateLimit
	return cfg
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the tutor service.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultServerURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client-wide timeout: generation requests end on cancellation.
		httpClient = &http.Client{}
	}

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		limiter:    limiter,
		log:        logger.Get(),
	}
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// TUTOR OPERATIONS
// =============================================================================

// Initialize asks the server to set up the tutor with its stored API key.
func (c *Client) Initialize(ctx context.Context) (string, error) {
	var resp Envelope
	if err := c.post(ctx, "/api/tutor/initialize", nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Ask sends a question and returns the answer text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var resp AskResponse
	if err := c.post(ctx, "/api/tutor/ask", AskRequest{Question: question}, &resp, false); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// AnalyzeCode asks the tutor to review a Dart or Flutter snippet.
func (c *Client) AnalyzeCode(ctx context.Context, code string) (string, error) {
	var resp AnalyzeCodeResponse
	if err := c.post(ctx, "/api/tutor/analyze-code", AnalyzeCodeRequest{Code: code}, &resp, false); err != nil {
		return "", err
	}
	return resp.Analysis, nil
}

// GenerateExercises asks for practice exercises on topic.
func (c *Client) GenerateExercises(ctx context.Context, topic string) (string, error) {
	var resp GenerateExercisesResponse
	if err := c.post(ctx, "/api/tutor/generate-exercises", GenerateExercisesRequest{Topic: topic}, &resp, false); err != nil {
		return "", err
	}
	return resp.Exercises, nil
}

// ExplainConcept asks for an explanation of concept.
func (c *Client) ExplainConcept(ctx context.Context, concept string) (string, error) {
	var resp ExplainConceptResponse
	if err := c.post(ctx, "/api/tutor/explain-concept", ExplainConceptRequest{Concept: concept}, &resp, false); err != nil {
		return "", err
	}
	return resp.Explanation, nil
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

// ScrapeDocumentation asks the server to refresh its documentation context.
func (c *Client) ScrapeDocumentation(ctx context.Context) (*ScrapeResponse, error) {
	var resp ScrapeResponse
	// Scraping takes minutes; only cancellation ends it.
	if err := c.post(ctx, "/api/scrape/documentation", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearCache empties the server's documentation cache.
func (c *Client) ClearCache(ctx context.Context) (string, error) {
	var resp Envelope
	if err := c.post(ctx, "/api/cache/clear", nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SaveAPIKey stores the generation API key on the server.
func (c *Client) SaveAPIKey(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", &ClientError{Type: ErrTypeInvalidRequest, Message: "API key is empty"}
	}
	var resp Envelope
	if err := c.post(ctx, "/api/config/save-api-key", SaveAPIKeyRequest{APIKey: key}, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Status reports the server's readiness.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// post sends body and decodes an enveloped response, turning success=false
// into a *ServerError.
func (c *Client) post(ctx context.Context, path string, body any, out enveloped, bounded bool) error {
	if err := c.do(ctx, http.MethodPost, path, body, out, bounded); err != nil {
		return err
	}
	if env := out.envelope(); !env.Success {
		return &ServerError{StatusCode: http.StatusOK, Message: env.Message}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, bounded bool) error {
	if bounded {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return c.contextError(ctx, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return c.contextError(ctx, err)
		}
		c.log.Warn("tutor request failed", "method", method, "path", path, "error", err)
		return &ClientError{Type: ErrTypeConnection, Message: ErrNotReachable.Message, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return c.contextError(ctx, err)
		}
		return &ClientError{Type: ErrTypeConnection, Message: "failed to read response", Cause: err}
	}
	c.log.Debug("tutor request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The service reports most failures as {"success":false,"message":...}
		// with a 4xx/5xx status.
		var env Envelope
		if json.Unmarshal(data, &env) == nil && !env.Success && env.Message != "" {
			return &ServerError{StatusCode: resp.StatusCode, Message: env.Message}
		}
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: fmt.Sprintf("unexpected status from tutor server: %s", resp.Status),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// contextError classifies a failure caused by ctx ending.
func (c *Client) contextError(ctx context.Context, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: ctx.Err()}
	}
	if ctx.Err() != nil {
		return &ClientError{Type: ErrTypeCanceled, Message: ErrCanceled.Message, Cause: ctx.Err()}
	}
	return &ClientError{Type: ErrTypeConnection, Message: ErrNotReachable.Message, Cause: cause}
}
