// Package transcribe submits clip audio to the transcription provider and
// polls for finished transcripts.
package transcribe

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

// Segment is one transcript utterance with timing in seconds relative to the
// start of the video.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Client talks to the transcription provider.
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

// New creates a transcription client.
func New(apiKey, baseURL string, pollInterval time.Duration, maxPollAttempts int, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("transcription api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("transcription base url required")
	}
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	if maxPollAttempts <= 0 {
		maxPollAttempts = 100
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

type submitRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Error      string `json:"error"`
	Utterances []struct {
		Start int64  `json:"start"`
		End   int64  `json:"end"`
		Text  string `json:"text"`
	} `json:"utterances"`
	Words []struct {
		Start int64  `json:"start"`
		End   int64  `json:"end"`
		Text  string `json:"text"`
	} `json:"words"`
}

// Transcribe submits the audio URL and blocks until the provider finishes or
// the attempt budget runs out.
func (c *Client) Transcribe(ctx context.Context, audioURL string) ([]Segment, error) {
	id, err := c.submit(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, id)
}

func (c *Client) submit(ctx context.Context, audioURL string) (string, error) {
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return "", services.Wrap(services.ErrValidation, "transcribe", "submit", "audio url required", nil)
	}

	body, err := json.Marshal(submitRequest{AudioURL: audioURL})
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "transcribe", "submit", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "transcribe", "submit", "build request", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcribe", "submit", "transcription request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrProvider, "transcribe", "submit",
			fmt.Sprintf("transcription provider returned status %d", resp.StatusCode), readBodyError(resp.Body))
	}

	var payload transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrProvider, "transcribe", "submit", "decode response", err)
	}
	if payload.ID == "" {
		return "", services.Wrap(services.ErrProvider, "transcribe", "submit", "provider returned no transcript id", nil)
	}
	return payload.ID, nil
}

func (c *Client) poll(ctx context.Context, id string) ([]Segment, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		payload, err := c.fetch(ctx, id)
		if err != nil {
			return nil, err
		}

		switch payload.Status {
		case "completed":
			return segmentsFrom(payload), nil
		case "error":
			message := payload.Error
			if message == "" {
				message = "transcription failed"
			}
			return nil, services.Wrap(services.ErrProvider, "transcribe", "poll", message, nil)
		}

		select {
		case <-ctx.Done():
			return nil, services.Wrap(services.ErrTimeout, "transcribe", "poll", "transcription canceled", ctx.Err())
		case <-ticker.C:
		}
	}

	return nil, services.Wrap(services.ErrTimeout, "transcribe", "poll",
		fmt.Sprintf("transcription did not finish after %d attempts", c.maxPollAttempts), nil)
}

func (c *Client) fetch(ctx context.Context, id string) (*transcriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+id, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrProvider, "transcribe", "poll", "build request", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribe", "poll", "transcription status request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrProvider, "transcribe", "poll",
			fmt.Sprintf("transcription provider returned status %d", resp.StatusCode), readBodyError(resp.Body))
	}

	var payload transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrProvider, "transcribe", "poll", "decode response", err)
	}
	return &payload, nil
}

// segmentsFrom prefers utterances and falls back to word-level timings.
// Provider timings are milliseconds.
func segmentsFrom(payload *transcriptResponse) []Segment {
	if len(payload.Utterances) > 0 {
		segments := make([]Segment, 0, len(payload.Utterances))
		for _, u := range payload.Utterances {
			text := strings.TrimSpace(u.Text)
			if text == "" {
				continue
			}
			segments = append(segments, Segment{
				Start: float64(u.Start) / 1000,
				End:   float64(u.End) / 1000,
				Text:  text,
			})
		}
		return segments
	}

	segments := make([]Segment, 0, len(payload.Words))
	for _, w := range payload.Words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Start: float64(w.Start) / 1000,
			End:   float64(w.End) / 1000,
			Text:  text,
		})
	}
	return segments
}

func readBodyError(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return errors.New(string(bytes.TrimSpace(data)))
}
