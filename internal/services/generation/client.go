package generation

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
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 2048
)

// Status values reported by the generation service.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Prediction is the job payload returned by both submit and status calls.
type Prediction struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output,omitempty"`
	Logs   string   `json:"logs,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Terminal reports whether the prediction reached a final status.
func (p Prediction) Terminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// LastLogLine returns the final non-empty line of the job logs.
func (p Prediction) LastLogLine() string {
	lines := strings.Split(strings.TrimSpace(p.Logs), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Service defines the generation operations used by the studio.
type Service interface {
	Submit(ctx context.Context, prompt string) (*Prediction, error)
	Status(ctx context.Context, id string) (*Prediction, error)
}

// Client talks to the text-to-video generation endpoint.
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

// WithTimeout overrides the per-request timeout.
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

// New creates a generation client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("generation base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse generation base url: %w", err)
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

type submitRequest struct {
	Prompt string `json:"prompt"`
}

// Submit starts a generation job for prompt.
func (c *Client) Submit(ctx context.Context, prompt string) (*Prediction, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, services.Wrap(services.ErrValidation, "generation", "submit", "prompt must not be empty", nil)
	}
	body, err := json.Marshal(submitRequest{Prompt: prompt})
	if err != nil {
		return nil, services.Wrap(services.ErrSubmission, "generation", "submit", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-video", bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrSubmission, "generation", "submit", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	pred, err := c.do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrSubmission, "generation", "submit", "", err)
	}
	if pred.Error != "" {
		return nil, services.Wrap(services.ErrSubmission, "generation", "submit", pred.Error, nil)
	}
	if strings.TrimSpace(pred.ID) == "" {
		return nil, services.Wrap(services.ErrSubmission, "generation", "submit", "response missing job id", nil)
	}
	if pred.Status == "" {
		pred.Status = StatusStarting
	}
	return pred, nil
}

// Status fetches the current state of job id.
func (c *Client) Status(ctx context.Context, id string) (*Prediction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "generation", "status", "job id must not be empty", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/generate-video/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "generation", "status", "build request", err)
	}
	pred, err := c.do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "generation", "status", "", err)
	}
	if pred.ID == "" {
		pred.ID = id
	}
	return pred, nil
}

func (c *Client) do(req *http.Request) (*Prediction, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("generation service returned %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(snippet)))
	}

	var payload Prediction
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	return &payload, nil
}
