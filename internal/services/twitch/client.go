// Package twitch resolves clip and VOD URLs through the Helix API into
// downloadable video metadata.
package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"clipforge/internal/services"
)

// Video is resolved source metadata for a twitch clip or VOD.
type Video struct {
	ID           string
	Title        string
	VideoURL     string
	ThumbnailURL string
	Duration     float64
	GameTitle    string
}

var (
	clipSlugPattern = regexp.MustCompile(`clip/([A-Za-z0-9_-]+)`)
	clipHostPattern = regexp.MustCompile(`clips\.twitch\.tv/([A-Za-z0-9_-]+)`)
	vodIDPattern    = regexp.MustCompile(`/videos/(\d+)`)
	vodDuration     = regexp.MustCompile(`(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?`)
)

// Client talks to the Helix API using app access credentials.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	authURL      string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
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

// New creates a Helix client.
func New(clientID, clientSecret, baseURL, authURL string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("twitch client id and secret required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("twitch base url required")
	}
	authURL = strings.TrimSpace(authURL)
	if authURL == "" {
		return nil, errors.New("twitch auth url required")
	}
	client := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      strings.TrimRight(baseURL, "/"),
		authURL:      authURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// IsClipURL reports whether a URL looks like a twitch clip link.
func IsClipURL(raw string) bool {
	return clipSlugPattern.MatchString(raw) || clipHostPattern.MatchString(raw)
}

// IsVODURL reports whether a URL looks like a twitch VOD link.
func IsVODURL(raw string) bool {
	return strings.Contains(raw, "twitch.tv") && vodIDPattern.MatchString(raw)
}

// ResolveClip looks up a clip by its public URL and derives the downloadable
// MP4 location from the thumbnail URL.
func (c *Client) ResolveClip(ctx context.Context, clipURL string) (*Video, error) {
	slug := extractClipSlug(clipURL)
	if slug == "" {
		return nil, services.Wrap(services.ErrValidation, "twitch", "resolve-clip",
			fmt.Sprintf("could not extract clip id from %q", clipURL), nil)
	}

	var payload struct {
		Data []struct {
			ID           string  `json:"id"`
			Title        string  `json:"title"`
			ThumbnailURL string  `json:"thumbnail_url"`
			Duration     float64 `json:"duration"`
			GameID       string  `json:"game_id"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/clips", url.Values{"id": {slug}}, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "twitch", "resolve-clip",
			fmt.Sprintf("clip %q not found", slug), nil)
	}

	clip := payload.Data[0]
	video := &Video{
		ID:           clip.ID,
		Title:        clip.Title,
		VideoURL:     mp4FromThumbnail(clip.ThumbnailURL),
		ThumbnailURL: clip.ThumbnailURL,
		Duration:     clip.Duration,
	}
	if clip.GameID != "" {
		if name, err := c.gameName(ctx, clip.GameID); err == nil {
			video.GameTitle = name
		}
	}
	return video, nil
}

// ResolveVOD looks up a VOD by its public URL.
func (c *Client) ResolveVOD(ctx context.Context, vodURL string) (*Video, error) {
	match := vodIDPattern.FindStringSubmatch(vodURL)
	if match == nil {
		return nil, services.Wrap(services.ErrValidation, "twitch", "resolve-vod",
			fmt.Sprintf("could not extract video id from %q", vodURL), nil)
	}
	id := match[1]

	var payload struct {
		Data []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			URL          string `json:"url"`
			ThumbnailURL string `json:"thumbnail_url"`
			Duration     string `json:"duration"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/videos", url.Values{"id": {id}}, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "twitch", "resolve-vod",
			fmt.Sprintf("video %q not found", id), nil)
	}

	vod := payload.Data[0]
	return &Video{
		ID:           vod.ID,
		Title:        vod.Title,
		VideoURL:     vod.URL,
		ThumbnailURL: vod.ThumbnailURL,
		Duration:     ParseVODDuration(vod.Duration),
	}, nil
}

func (c *Client) gameName(ctx context.Context, gameID string) (string, error) {
	var payload struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/games", url.Values{"id": {gameID}}, &payload); err != nil {
		return "", err
	}
	if len(payload.Data) == 0 {
		return "", services.Wrap(services.ErrNotFound, "twitch", "game-lookup",
			fmt.Sprintf("game %q not found", gameID), nil)
	}
	return payload.Data[0].Name, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return services.Wrap(services.ErrProvider, "twitch", "request", "build request", err)
	}
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "twitch", "request", "helix request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token may have been revoked; force refresh on the next call.
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrProvider, "twitch", "request",
			fmt.Sprintf("helix returned status %d", resp.StatusCode), readBodyError(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrProvider, "twitch", "request", "decode response", err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "twitch", "auth", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "twitch", "auth", "token request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrConfiguration, "twitch", "auth",
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode), readBodyError(resp.Body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrProvider, "twitch", "auth", "decode token response", err)
	}
	if payload.AccessToken == "" {
		return "", services.Wrap(services.ErrConfiguration, "twitch", "auth", "token endpoint returned no token", nil)
	}

	c.accessToken = payload.AccessToken
	// Refresh a minute early to avoid racing expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

func extractClipSlug(raw string) string {
	if match := clipSlugPattern.FindStringSubmatch(raw); match != nil {
		return match[1]
	}
	if match := clipHostPattern.FindStringSubmatch(raw); match != nil {
		return match[1]
	}
	return ""
}

// mp4FromThumbnail converts a clip thumbnail URL into the backing MP4 URL.
// Helix exposes no direct download field; the CDN keeps both objects at the
// same path.
func mp4FromThumbnail(thumbnailURL string) string {
	return strings.Replace(thumbnailURL, "-preview-480x272.jpg", ".mp4", 1)
}

// ParseVODDuration parses Helix VOD durations like "1h2m30s" into seconds.
func ParseVODDuration(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	match := vodDuration.FindStringSubmatch(raw)
	if match == nil {
		return 0
	}
	var total float64
	if match[1] != "" {
		total += asSeconds(match[1], 3600)
	}
	if match[2] != "" {
		total += asSeconds(match[2], 60)
	}
	if match[3] != "" {
		total += asSeconds(match[3], 1)
	}
	return total
}

func asSeconds(value string, multiplier float64) float64 {
	var n float64
	for _, ch := range value {
		n = n*10 + float64(ch-'0')
	}
	return n * multiplier
}

func readBodyError(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return nil
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return errors.New(trimmed)
}
