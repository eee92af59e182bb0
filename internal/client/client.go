// Package client provides a Go client for the coursechat HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client talks to a running coursechat-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates an API client.
// If baseURL is empty, uses COURSECHAT_SERVER_URL env var or defaults to
// localhost:8000.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("COURSECHAT_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 2 * time.Minute // answering can block on the chat model
	if t := os.Getenv("COURSECHAT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Source is one retrieval source attached to an answer.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// QueryResult is the server's answer to one question.
type QueryResult struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	SessionID string   `json:"session_id"`
}

// Query asks a question. Pass the SessionID from a previous result to
// continue that conversation; pass "" to start a new one.
func (c *Client) Query(ctx context.Context, question, sessionID string) (*QueryResult, error) {
	payload, err := json.Marshal(map[string]string{
		"query":      question,
		"session_id": sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/api/query", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats describes the server's corpus contents.
type Stats struct {
	Courses int      `json:"total_courses"`
	Chunks  int      `json:"total_chunks"`
	Titles  []string `json:"course_titles"`
}

// Courses fetches corpus statistics and the course title list.
func (c *Client) Courses(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/api/courses", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health reports whether the server is reachable and healthy.
func (c *Client) Health(ctx context.Context) error {
	var status map[string]string
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return err
	}
	if status["status"] != "ok" {
		return fmt.Errorf("unexpected health status: %q", status["status"])
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
