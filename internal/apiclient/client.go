package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/api"
)

// Client provides HTTP access to the daemon API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a client for the daemon API at the given address.
// The address may be a bare host:port or a full http URL.
func New(addr, token string) *Client {
	base := strings.TrimSpace(addr)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Ping verifies the daemon API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Status(ctx)
	return err
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.get(ctx, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Stats retrieves normalized queue counts.
func (c *Client) Stats(ctx context.Context) (*api.QueueStatsResponse, error) {
	var stats api.QueueStatsResponse
	if err := c.get(ctx, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListClips returns clips, optionally filtered by status.
func (c *Client) ListClips(ctx context.Context, statuses []string) ([]api.ClipItem, error) {
	var resp api.ClipListResponse
	if err := c.get(ctx, "/api/clips", statusQuery(statuses), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// DescribeClip fetches a clip with its related records. Returns nil when absent.
func (c *Client) DescribeClip(ctx context.Context, id string) (*api.ClipDetail, error) {
	var detail api.ClipDetail
	err := c.get(ctx, "/api/clips/"+url.PathEscape(id), nil, &detail)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListExports returns export jobs, optionally filtered by status.
func (c *Client) ListExports(ctx context.Context, statuses []string) ([]api.ExportItem, error) {
	var resp api.ExportListResponse
	if err := c.get(ctx, "/api/exports", statusQuery(statuses), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// DescribeExport fetches a single export job. Returns nil when absent.
func (c *Client) DescribeExport(ctx context.Context, id string) (*api.ExportItem, error) {
	var item api.ExportItem
	err := c.get(ctx, "/api/exports/"+url.PathEscape(id), nil, &item)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Ingest enqueues a new source for processing.
func (c *Client) Ingest(ctx context.Context, req api.IngestRequest) (*api.ClipItem, error) {
	var clip api.ClipItem
	if err := c.post(ctx, "/api/ingest", req, &clip); err != nil {
		return nil, err
	}
	return &clip, nil
}

// CreateExport enqueues a vertical export job.
func (c *Client) CreateExport(ctx context.Context, req api.ExportRequest) (*api.ExportItem, error) {
	var export api.ExportItem
	if err := c.post(ctx, "/api/exports", req, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

// LogQuery shapes a TailLogs request. Offset and Limit mirror the daemon's
// tail semantics; Wait only applies when Follow is set and must stay under the
// client's request timeout.
type LogQuery struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailLogs fetches daemon log lines.
func (c *Client) TailLogs(ctx context.Context, q LogQuery) (*api.LogTailResponse, error) {
	query := url.Values{}
	query.Set("offset", strconv.FormatInt(q.Offset, 10))
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		query.Set("follow", "1")
		if q.Wait > 0 {
			query.Set("wait", strconv.Itoa(int(q.Wait/time.Second)))
		}
	}
	var resp api.LogTailResponse
	if err := c.get(ctx, "/api/logs", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StatusError carries the HTTP status and message from an API error payload.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon api: status %d", e.Code)
	}
	return fmt.Sprintf("daemon api: %s", e.Message)
}

func isNotFound(err error) bool {
	statusErr, ok := err.(*StatusError)
	return ok && statusErr.Code == http.StatusNotFound
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(body), out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("daemon api address not configured")
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Message: decodeErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeErrorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error
}

func statusQuery(statuses []string) url.Values {
	if len(statuses) == 0 {
		return nil
	}
	query := url.Values{}
	for _, status := range statuses {
		if trimmed := strings.TrimSpace(status); trimmed != "" {
			query.Add("status", trimmed)
		}
	}
	return query
}
