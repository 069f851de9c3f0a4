// Package trigger invokes the external analysis job that consumes the
// uploaded pitch files and writes the result artifact.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UploadRef describes one uploaded file in the job payload. The wire names
// match what the analysis job expects.
type UploadRef struct {
	Category  string `json:"filetype"`
	Filename  string `json:"filename"`
	Extension string `json:"file_extension"`
	Path      string `json:"filepath"`
}

// Payload is the request body for one analysis run.
type Payload struct {
	Uploads     []UploadRef `json:"uploads"`
	StartupText string      `json:"startup_text"`
	Destination string      `json:"destination_gcs"`
}

// Error carries a non-success trigger response.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("trigger returned %d: %s", e.Status, e.Body)
}

// Client posts analysis jobs to the configured compute endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a trigger client with a bounded request timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a trigger endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Invoke sends the payload. Any non-2xx response is an *Error; the body is
// truncated so a misbehaving endpoint cannot flood the logs.
func (c *Client) Invoke(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("invoke trigger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return &Error{Status: resp.StatusCode, Body: string(snippet)}
	}

	return nil
}
