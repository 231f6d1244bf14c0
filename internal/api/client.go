package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/focuswatch/internal/controller"
	"github.com/goodtune/focuswatch/internal/stats"
)

// Client talks to a running control API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API at addr (host:port or a URL).
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimSuffix(base, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Status returns the timer status.
func (c *Client) Status(ctx context.Context) (controller.Status, error) {
	var status controller.Status
	err := c.do(ctx, http.MethodGet, "/api/timer", nil, &status)
	return status, err
}

// Toggle starts, pauses or resumes the timer.
func (c *Client) Toggle(ctx context.Context) (controller.Status, error) {
	var status controller.Status
	err := c.do(ctx, http.MethodPost, "/api/timer/toggle", nil, &status)
	return status, err
}

// Reset records the session and stops the timer.
func (c *Client) Reset(ctx context.Context) (controller.Status, error) {
	var status controller.Status
	err := c.do(ctx, http.MethodPost, "/api/timer/reset", nil, &status)
	return status, err
}

// Stats returns the stats snapshot for a window of days.
func (c *Client) Stats(ctx context.Context, days int) (stats.Snapshot, error) {
	var snap stats.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/stats?days="+strconv.Itoa(days), nil, &snap)
	return snap, err
}

// ClearStats deletes every recorded day.
func (c *Client) ClearStats(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/stats", nil, nil)
}

// Persist reports whether timer persistence is enabled.
func (c *Client) Persist(ctx context.Context) (bool, error) {
	var setting PersistSetting
	err := c.do(ctx, http.MethodGet, "/api/settings/persist-timer", nil, &setting)
	return setting.Enabled, err
}

// SetPersist enables or disables timer persistence.
func (c *Client) SetPersist(ctx context.Context, enabled bool) error {
	return c.do(ctx, http.MethodPut, "/api/settings/persist-timer", PersistSetting{Enabled: enabled}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Message)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
