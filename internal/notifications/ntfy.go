package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ntfyService struct {
	endpoint string
	client   *http.Client
}

// NewNtfyService publishes to the ntfy topic URL. A non-positive timeout
// falls back to ten seconds.
func NewNtfyService(endpoint string, timeout time.Duration) Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *ntfyService) NotifyTransition(ctx context.Context, event Event) error {
	return n.send(ctx, transitionPayload(event), event.ID)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Atelier - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"atelier", "test"},
		priority: "low",
	}
	return n.send(ctx, data, "")
}

func (n *ntfyService) send(ctx context.Context, data payload, id string) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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
	if id != "" {
		req.Header.Set("X-Atelier-Event", id)
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
