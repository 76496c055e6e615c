// SPDX-License-Identifier: Apache-2.0

// Package api is the client for the local backend's HTTP interface
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Work-Fort/Onboard/pkg/prefs"
)

// DefaultBaseURL is where the local backend listens
const DefaultBaseURL = "http://127.0.0.1:5002"

// StatusError is returned for any non-2xx response
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Health is the /health response
type Health struct {
	Status string `json:"status"`
}

// StatusResponse is the acknowledgement returned by write endpoints
type StatusResponse struct {
	Status string `json:"status"`
}

// TelemetryPayload is the body of POST /telemetry
type TelemetryPayload struct {
	Event   string         `json:"event"`
	Details map[string]any `json:"details"`
}

// Client talks to the backend
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string { return c.baseURL }

// PostTelemetry sends one event
func (c *Client) PostTelemetry(ctx context.Context, event string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return c.do(ctx, http.MethodPost, "/telemetry", TelemetryPayload{Event: event, Details: details}, nil)
}

// Health checks the backend is up
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// PostOnboarding reports that onboarding finished. The body is the
// final preferences.
func (c *Client) PostOnboarding(ctx context.Context, p prefs.Preferences) error {
	return c.do(ctx, http.MethodPost, "/onboarding", p.Normalize(), nil)
}

// Preferences fetches the preferences held by the backend
func (c *Client) Preferences(ctx context.Context) (*prefs.Preferences, error) {
	var p prefs.Preferences
	if err := c.do(ctx, http.MethodGet, "/preferences", nil, &p); err != nil {
		return nil, err
	}
	p = p.Normalize()
	return &p, nil
}

// SavePreferences stores preferences on the backend
func (c *Client) SavePreferences(ctx context.Context, p prefs.Preferences) error {
	return c.do(ctx, http.MethodPost, "/preferences", p, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
