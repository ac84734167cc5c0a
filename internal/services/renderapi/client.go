// Package renderapi submits render specs to the hosted render provider and
// polls jobs until a finished video URL is available.
package renderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipforge/internal/services"
)

// Result describes a finished render.
type Result struct {
	JobID string
	URL   string
}

// Client talks to the render provider.
type Client struct {
	apiKey          string
	baseURL         string
	pollInterval    time.Duration
	maxPollAttempts int
	httpClient      *http.Client
}

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

// WithPollInterval overrides the polling cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// New creates a render client.
func New(apiKey, baseURL string, pollInterval time.Duration, maxPollAttempts int, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("render api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("render base url required")
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if maxPollAttempts <= 0 {
		maxPollAttempts = 60
	}
	client := &Client{
		apiKey:          apiKey,
		baseURL:         strings.TrimRight(baseURL, "/"),
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type renderEnvelope struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		URL    string `json:"url"`
		Error  string `json:"error"`
	} `json:"response"`
}

// Render submits the spec and blocks until the job finishes or the attempt
// budget runs out. The spec must already be validated; the provider rejects
// malformed timelines with little detail.
func (c *Client) Render(ctx context.Context, spec any) (*Result, error) {
	id, err := c.submit(ctx, spec)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, id)
}

// Submit queues a render job and returns its identifier without waiting.
func (c *Client) Submit(ctx context.Context, spec any) (string, error) {
	return c.submit(ctx, spec)
}

func (c *Client) submit(ctx context.Context, spec any) (string, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "render", "submit", "encode render spec", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "render", "submit", "build request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "render", "submit", "render request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrProvider, "render", "submit",
			fmt.Sprintf("render provider returned status %d", resp.StatusCode), readBodyError(resp.Body))
	}

	var payload renderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrProvider, "render", "submit", "decode response", err)
	}
	if payload.Response.ID == "" {
		message := payload.Message
		if message == "" {
			message = "provider returned no render id"
		}
		return "", services.Wrap(services.ErrProvider, "render", "submit", message, nil)
	}
	return payload.Response.ID, nil
}

// Status fetches the current state of a render job.
func (c *Client) Status(ctx context.Context, id string) (status, url, errorMessage string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/render/"+id, nil)
	if err != nil {
		return "", "", "", services.Wrap(services.ErrProvider, "render", "poll", "build request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", "", services.Wrap(services.ErrTransient, "render", "poll", "render status request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", "", services.Wrap(services.ErrProvider, "render", "poll",
			fmt.Sprintf("render provider returned status %d", resp.StatusCode), readBodyError(resp.Body))
	}

	var payload renderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", "", services.Wrap(services.ErrProvider, "render", "poll", "decode response", err)
	}
	return payload.Response.Status, payload.Response.URL, payload.Response.Error, nil
}

func (c *Client) poll(ctx context.Context, id string) (*Result, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		status, url, errorMessage, err := c.Status(ctx, id)
		if err != nil {
			return nil, err
		}

		switch status {
		case "done":
			if url == "" {
				return nil, services.Wrap(services.ErrProvider, "render", "poll", "render finished without output url", nil)
			}
			return &Result{JobID: id, URL: url}, nil
		case "failed":
			message := errorMessage
			if message == "" {
				message = "render failed"
			}
			return nil, services.Wrap(services.ErrProvider, "render", "poll", message, nil)
		}

		select {
		case <-ctx.Done():
			return nil, services.Wrap(services.ErrTimeout, "render", "poll", "render canceled", ctx.Err())
		case <-ticker.C:
		}
	}

	return nil, services.Wrap(services.ErrTimeout, "render", "poll",
		fmt.Sprintf("render did not finish after %d attempts", c.maxPollAttempts), nil)
}

// Download streams a finished render. The caller closes the reader.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrProvider, "render", "download", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "render", "download", "download failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, 0, services.Wrap(services.ErrProvider, "render", "download",
			fmt.Sprintf("download returned status %d", resp.StatusCode), readBodyError(resp.Body))
	}
	return resp.Body, resp.ContentLength, nil
}

func readBodyError(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return errors.New(string(bytes.TrimSpace(data)))
}
