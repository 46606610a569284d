// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeNotFound
	ErrTypeInvalidResponse
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeNotFound:
		return "not_found"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// ClientError represents a failed backend call.
type ClientError struct {
	Type ErrorType
	// Status is the HTTP status for ErrTypeStatus and ErrTypeNotFound.
	Status  int
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

// Sentinel errors for errors.Is checks.
var (
	ErrConnection      = &ClientError{Type: ErrTypeConnection, Message: "cannot reach backend"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrNotFound        = &ClientError{Type: ErrTypeNotFound, Message: "not found"}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid response"}
)

// IsConnection reports whether err means the backend could not be reached.
func IsConnection(err error) bool { return errors.Is(err, ErrConnection) }

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// TypeOf returns the ErrorType of err, or ErrTypeUnknown when err is not a
// ClientError.
func TypeOf(err error) ErrorType {
	var cerr *ClientError
	if errors.As(err, &cerr) {
		return cerr.Type
	}
	return ErrTypeUnknown
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL of the backend (default: http://127.0.0.1:5000)
	BaseURL string

	// Timeout per request attempt (default: 2m; completions can be slow)
	Timeout time.Duration

	// MaxRetries for idempotent GETs (default: 0)
	MaxRetries int

	// RetryDelay between GET retries (default: 500ms)
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    "http://127.0.0.1:5000",
		Timeout:    2 * time.Minute,
		RetryDelay: 500 * time.Millisecond,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the rigchat backend. It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a client for baseURL with default settings.
func NewClient(baseURL string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:5000"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 500 * time.Millisecond
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Complete runs one chat turn. It is never retried: a retry could make the
// backend answer the same input twice.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var resp CompletionResponse
	if err := c.do(ctx, http.MethodPost, PathCompletion, req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveChat stores history under filename and returns the server's message.
func (c *Client) SaveChat(ctx context.Context, filename string, history model.History) (string, error) {
	var resp StatusResponse
	req := SaveRequest{Filename: filename, ConversationHistory: history}
	if err := c.do(ctx, http.MethodPost, PathSave, req, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DeleteChat deletes a stored record and returns the server's message.
func (c *Client) DeleteChat(ctx context.Context, filename string) (string, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodDelete, PathDelete+url.PathEscape(filename), nil, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RenameChat renames a stored record and returns the server's message.
func (c *Client) RenameChat(ctx context.Context, filename, newFilename string) (string, error) {
	var resp StatusResponse
	req := RenameRequest{NewFilename: newFilename}
	if err := c.do(ctx, http.MethodPost, PathRename+url.PathEscape(filename), req, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// LoadChat fetches a stored history.
func (c *Client) LoadChat(ctx context.Context, filename string) (model.History, error) {
	var resp LoadResponse
	if err := c.do(ctx, http.MethodGet, PathLoad+url.PathEscape(filename), nil, &resp, true); err != nil {
		return nil, err
	}
	if resp.ConversationHistory == nil {
		return model.History{}, nil
	}
	return resp.ConversationHistory, nil
}

// ListChats returns the stored record names.
func (c *Client) ListChats(ctx context.Context) ([]string, error) {
	var resp ChatListResponse
	if err := c.do(ctx, http.MethodGet, PathChats, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// ListModels returns the backend's selectable models and its default.
func (c *Client) ListModels(ctx context.Context) (*ModelsResponse, error) {
	var resp ModelsResponse
	if err := c.do(ctx, http.MethodGet, PathModels, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, PathHealth, nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, retry bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
	}

	attempts := 1
	if retry {
		attempts += c.config.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return classifyTransport(ctx.Err(), c.config.BaseURL)
			case <-time.After(c.config.RetryDelay):
			}
		}

		lastErr = c.once(ctx, method, path, payload, out)
		if lastErr == nil || ctx.Err() != nil || !transient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// transient reports whether a retry might succeed.
func transient(err error) bool {
	var cerr *ClientError
	if !errors.As(err, &cerr) {
		return false
	}
	return cerr.Type == ErrTypeConnection || (cerr.Type == ErrTypeStatus && cerr.Status >= 500)
}

// once performs a single attempt.
func (c *Client) once(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err, c.config.BaseURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode >= 400 {
		cerr := &ClientError{Type: ErrTypeStatus, Status: resp.StatusCode, Message: statusMessage(resp, data)}
		if resp.StatusCode == http.StatusNotFound {
			cerr.Type = ErrTypeNotFound
		}
		return cerr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// statusMessage prefers the server's {message} text over the bare status.
func statusMessage(resp *http.Response, data []byte) string {
	var body StatusResponse
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("backend returned %s", resp.Status)
}

func classifyTransport(err error, baseURL string) *ClientError {
	var te interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &te) && te.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request to " + baseURL + " timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "cannot reach backend at " + baseURL, Cause: err}
}
