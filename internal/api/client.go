// Package api is the HTTP client for the earshot backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/auth"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/log"
)

const (
	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client talks to ${baseURL}/api.
type Client struct {
	httpClient *http.Client
	baseURL    string
	storage    *auth.TokenStorage
	token      *auth.Token
	mu         sync.RWMutex
	retryWait  time.Duration
	log        *logrus.Entry
}

// New creates a client for the backend at baseURL. storage may be nil
// for unauthenticated use.
func New(baseURL string, timeout time.Duration, storage *auth.TokenStorage) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/") + "/api",
		storage:    storage,
		retryWait:  baseRetryWait,
		log:        log.For("api"),
	}
}

// LoadToken loads the token from storage.
func (c *Client) LoadToken() error {
	if c.storage == nil {
		return nil
	}
	token, err := c.storage.Load()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// SetToken sets the current token and persists it.
func (c *Client) SetToken(token *auth.Token) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	if c.storage == nil {
		return nil
	}
	return c.storage.Save(token)
}

// IsAuthenticated returns true if there's a usable token.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.token.IsExpired()
}

func (c *Client) bearer() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token.IsExpired() {
		return "", errors.ErrNotAuthenticated
	}
	return c.token.AccessToken, nil
}

// AuthHeaders returns the headers an external fetcher such as mpv needs
// to stream protected audio.
func (c *Client) AuthHeaders() (map[string]string, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// envelope is the backend's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// APIError is a non-success response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("API error: %s", e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the sentinel taxonomy.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return errors.ErrNotAuthenticated
	case e.Status == http.StatusNotFound:
		return errors.ErrResourceNotFound
	case e.Status == http.StatusTooManyRequests:
		return errors.ErrRateLimited
	default:
		return errors.ErrRemote
	}
}

// Get performs an authenticated GET.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, nil, result, true)
}

// Post performs an authenticated POST.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.request(ctx, http.MethodPost, path, body, result, true)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil, true)
}

// retryable reports whether a failed attempt may be repeated. POSTs are
// only repeated on 429, where the server has not acted.
func retryable(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if method == http.MethodPost {
		return false
	}
	return status == 0 || status >= 500
}

func (c *Client) request(ctx context.Context, method, path string, body, result any, authed bool) error {
	var token string
	if authed {
		var err error
		if token, err = c.bearer(); err != nil {
			return err
		}
	}

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.baseURL + path
	entry := c.log.WithFields(logrus.Fields{"method": method, "url": fullURL})
	entry.Debug("request")

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1)) // exponential backoff
			entry.WithError(lastErr).Debugf("retry %d/%d after %v", attempt, maxRetries, wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", errors.ErrNetworkError, err)
			if !retryable(method, 0) {
				return lastErr
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: failed to read response: %v", errors.ErrNetworkError, err)
			if !retryable(method, 0) {
				return lastErr
			}
			continue
		}

		entry.WithField("status", resp.StatusCode).Debug("response")

		if resp.StatusCode >= 400 {
			lastErr = decodeError(resp.StatusCode, respBody)
			if retryable(method, resp.StatusCode) {
				continue
			}
			return lastErr
		}

		return decodeResult(resp.StatusCode, respBody, result)
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func decodeError(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return &APIError{Status: status, Message: env.Message}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func decodeResult(status int, body []byte, result any) error {
	if status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request unsuccessful"
		}
		return &APIError{Status: status, Message: msg}
	}
	if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// IsAuthError reports whether err means the token was missing or refused.
func IsAuthError(err error) bool {
	return stderrors.Is(err, errors.ErrNotAuthenticated)
}

// rawRequest sends an unauthenticated request and hands back the body
// undecoded. It is used for endpoints that answer outside the envelope.
func (c *Client) rawRequest(ctx context.Context, method, path string, body any, out *json.RawMessage) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", errors.ErrNetworkError, err)
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}
	*out = respBody
	return nil
}
