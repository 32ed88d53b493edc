package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipstudio/internal/config"
)

const userAgent = "clipstudio/0.1.0"

// Event identifies a studio milestone worth a push notification.
type Event string

const (
	EventClipReady      Event = "clip_ready"
	EventMergeCompleted Event = "merge_completed"
	EventMergeFailed    Event = "merge_failed"
	EventFinalized      Event = "finalized"
	EventHandoffFailed  Event = "handoff_failed"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event-specific values such as prompt, clips, or error.
type Payload map[string]any

// Service defines the notification surface exposed to studio components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		settings: cfg.Notifications,
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
	settings config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventClipReady:
		return n.settings.Clips
	case EventMergeCompleted, EventMergeFailed:
		return n.settings.Merges
	case EventFinalized:
		return n.settings.Finalize
	case EventError, EventHandoffFailed:
		return n.settings.Errors
	case EventTest:
		return true
	default:
		return false
	}
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventClipReady:
		clips := intValue(payload, "clips")
		body := fmt.Sprintf("🎬 Clip %d ready: %s", clips, stringValue(payload, "prompt"))
		return message{
			title: "clipstudio - Clip Ready",
			body:  body,
			tags:  []string{"clipstudio", "clip", "ready"},
		}, true
	case EventMergeCompleted:
		return message{
			title: "clipstudio - Merged",
			body:  fmt.Sprintf("🎞️ Merged %d clips", intValue(payload, "clips")),
			tags:  []string{"clipstudio", "merge", "completed"},
		}, true
	case EventMergeFailed:
		return message{
			title:    "clipstudio - Merge Failed",
			body:     fmt.Sprintf("⚠️ Merge of %d clips failed: %s\nRetry with 'clipstudio retry-merge'", intValue(payload, "clips"), stringValue(payload, "error")),
			tags:     []string{"clipstudio", "merge", "failed"},
			priority: "high",
		}, true
	case EventFinalized:
		body := fmt.Sprintf("✅ Saved to library: %s", stringValue(payload, "title"))
		if id := stringValue(payload, "record_id"); id != "" {
			body = fmt.Sprintf("%s\nRecord: %s", body, id)
		}
		return message{
			title: "clipstudio - Finalized",
			body:  body,
			tags:  []string{"clipstudio", "library", "saved"},
		}, true
	case EventHandoffFailed:
		return message{
			title:    "clipstudio - Handoff Failed",
			body:     fmt.Sprintf("❌ Scheduling handoff failed for %s: %s", stringValue(payload, "record_id"), stringValue(payload, "error")),
			tags:     []string{"clipstudio", "handoff", "alert"},
			priority: "high",
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := stringValue(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if detail := stringValue(payload, "error"); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "clipstudio - Error",
			body:     builder.String(),
			tags:     []string{"clipstudio", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "clipstudio - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"clipstudio", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func stringValue(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func intValue(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

// NewNoop returns a Service that drops every event.
func NewNoop() Service { return noopService{} }
