package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipforge/internal/config"
)

const userAgent = "ClipForge-Go/0.1.0"

// Event identifies a workflow milestone worth surfacing to the user.
type Event string

const (
	EventClipIngested    Event = "clip-ingested"
	EventClipAnalyzed    Event = "clip-analyzed"
	EventExportCompleted Event = "export-completed"
	EventError           Event = "error"
	EventTest            Event = "test"
)

// Payload carries event-specific fields used to format the message.
type Payload map[string]string

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		clips:    cfg.Notifications.Clips,
		exports:  cfg.Notifications.Exports,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	clips    bool
	exports  bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventClipIngested:
		if !n.clips {
			return message{}, false
		}
		title := strings.TrimSpace(payload["title"])
		source := strings.TrimSpace(payload["source"])
		if source == "" {
			source = "unknown"
		}
		return message{
			title: "ClipForge - Clip Ingested",
			body:  fmt.Sprintf("📥 Ingested: %s (%s)", title, source),
			tags:  []string{"clipforge", "ingest", "completed"},
		}, true
	case EventClipAnalyzed:
		if !n.clips {
			return message{}, false
		}
		title := strings.TrimSpace(payload["title"])
		count := strings.TrimSpace(payload["highlights"])
		if count == "" {
			count = "0"
		}
		return message{
			title: "ClipForge - Analyzed",
			body:  fmt.Sprintf("🎯 %s highlights found: %s", count, title),
			tags:  []string{"clipforge", "detect", "completed"},
		}, true
	case EventExportCompleted:
		if !n.exports {
			return message{}, false
		}
		title := strings.TrimSpace(payload["title"])
		format := strings.TrimSpace(payload["format"])
		body := fmt.Sprintf("✅ Export ready: %s", title)
		if format != "" {
			body = fmt.Sprintf("%s (%s)", body, format)
		}
		return message{
			title:    "ClipForge - Export Complete",
			body:     body,
			tags:     []string{"clipforge", "export", "completed"},
			priority: "high",
		}, true
	case EventError:
		if !n.errors {
			return message{}, false
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := strings.TrimSpace(payload["context"]); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if detail := strings.TrimSpace(payload["error"]); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "ClipForge - Error",
			body:     builder.String(),
			tags:     []string{"clipforge", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "ClipForge - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"clipforge", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
