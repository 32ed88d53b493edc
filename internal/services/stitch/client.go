package stitch

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

	"clipstudio/internal/services"
)

const (
	defaultHTTPTimeout = 2 * time.Minute
	maxErrorBody       = 2048
)

// Result is the merged artifact returned by the stitch service.
type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Service concatenates an ordered list of clip URLs into one video.
type Service interface {
	Stitch(ctx context.Context, urls []string) (*Result, error)
}

// Client talks to the stitch endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken sets a bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout overrides the per-request timeout. Stitching runs server side
// and routinely takes longer than a generation status call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		copied := *c.httpClient
		copied.Timeout = timeout
		c.httpClient = &copied
	}
}

// New creates a stitch client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("stitch base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse stitch base url: %w", err)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type stitchRequest struct {
	VideoURLs []string `json:"videoUrls"`
}

type stitchResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Error    string `json:"error"`
}

// Stitch submits urls in order and returns the merged reference.
func (c *Client) Stitch(ctx context.Context, urls []string) (*Result, error) {
	if len(urls) < 2 {
		return nil, services.Wrap(services.ErrValidation, "stitch", "merge", fmt.Sprintf("need at least 2 clips, got %d", len(urls)), nil)
	}
	for i, u := range urls {
		if strings.TrimSpace(u) == "" {
			return nil, services.Wrap(services.ErrValidation, "stitch", "merge", fmt.Sprintf("clip %d has empty url", i), nil)
		}
	}
	body, err := json.Marshal(stitchRequest{VideoURLs: urls})
	if err != nil {
		return nil, services.Wrap(services.ErrMergeFailed, "stitch", "merge", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/stitch-videos", bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrMergeFailed, "stitch", "merge", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrMergeFailed, "stitch", "merge", fmt.Sprintf("latency=%v", latency), errors.Join(services.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, services.Wrap(services.ErrMergeFailed, "stitch", "merge",
			fmt.Sprintf("status %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(snippet))), nil)
	}

	var payload stitchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrMergeFailed, "stitch", "merge", "decode response", err)
	}
	if payload.Error != "" {
		return nil, services.Wrap(services.ErrMergeFailed, "stitch", "merge", payload.Error, nil)
	}
	if strings.TrimSpace(payload.URL) == "" {
		return nil, services.Wrap(services.ErrMergeFailed, "stitch", "merge", "response missing url", nil)
	}
	return &Result{URL: strings.TrimSpace(payload.URL), PublicID: strings.TrimSpace(payload.PublicID)}, nil
}
