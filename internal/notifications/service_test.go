package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"atelier/internal/config"
	"atelier/internal/notifications"
)

func TestNewServiceReturnsNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyTransition(context.Background(), notifications.Event{ItemID: "item-1", Action: "reject"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.Close(svc); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

type capturedRequest struct {
	title    string
	tags     string
	priority string
	event    string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	requests := make(chan capturedRequest, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			event:    r.Header.Get("X-Atelier-Event"),
			body:     string(body),
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("upstream says no"))
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func TestNtfyServiceFormatsTransitions(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "listing",
			event:         notifications.Event{ID: "evt-1", ItemID: "item-1", OwnerID: "designer-1", Action: "create_listing", ItemTitle: "Wool Coat"},
			expectTitle:   "Atelier - Listing In Preparation",
			expectMessage: "🛍️ \"Wool Coat\" is being prepared for the marketplace\nOwner: designer-1",
			expectTags:    "atelier,listing,marketplace",
		},
		{
			name:           "reject",
			event:          notifications.Event{ID: "evt-2", ItemID: "item-2", OwnerID: "designer-2", Action: "reject", ItemTitle: "Felt Hat"},
			expectTitle:    "Atelier - Submission Declined",
			expectMessage:  "❌ \"Felt Hat\" was not accepted for production\nOwner: designer-2",
			expectTags:     "atelier,review,rejected",
			expectPriority: "high",
		},
		{
			name:           "publish falls back to item id",
			event:          notifications.Event{ID: "evt-3", ItemID: "item-3", Action: "publish"},
			expectTitle:    "Atelier - Published",
			expectMessage:  "✅ \"item-3\" is live on the marketplace",
			expectTags:     "atelier,listing,published",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, requests := newNtfyServer(t, http.StatusOK)
			svc := notifications.NewNtfyService(server.URL, time.Second)
			if err := svc.NotifyTransition(context.Background(), tc.event); err != nil {
				t.Fatalf("NotifyTransition: %v", err)
			}
			got := <-requests
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("body = %q, want %q", got.body, tc.expectMessage)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
			if got.event != tc.event.ID {
				t.Fatalf("event header = %q, want %q", got.event, tc.event.ID)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusBadGateway)
	svc := notifications.NewNtfyService(server.URL, time.Second)
	err := svc.NotifyTransition(context.Background(), notifications.Event{ItemID: "item-1", Action: "reject"})
	if err == nil || !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream says no") {
		t.Fatalf("expected 502 error with body, got %v", err)
	}
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaServiceWritesKeyedEvent(t *testing.T) {
	writer := &fakeWriter{}
	svc := notifications.NewKafkaService(writer)
	occurred := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	err := svc.NotifyTransition(context.Background(), notifications.Event{
		ID:         "evt-9",
		ItemID:     "item-9",
		OwnerID:    "designer-9",
		Action:     "create_listing",
		ItemTitle:  "Glass Vase",
		OccurredAt: occurred,
	})
	if err != nil {
		t.Fatalf("NotifyTransition: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "item-9" {
		t.Fatalf("expected item key, got %q", msg.Key)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if decoded["id"] != "evt-9" || decoded["ownerId"] != "designer-9" || decoded["action"] != "create_listing" {
		t.Fatalf("unexpected value %v", decoded)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event-type"] != "pipeline.transition" || headers["event-id"] != "evt-9" {
		t.Fatalf("unexpected headers %v", headers)
	}

	if err := notifications.Close(svc); err != nil || !writer.closed {
		t.Fatalf("expected writer closed, err=%v", err)
	}
}

func TestKafkaServiceWrapsWriteErrors(t *testing.T) {
	writer := &fakeWriter{err: errors.New("leader not available")}
	svc := notifications.NewKafkaService(writer)
	err := svc.NotifyTransition(context.Background(), notifications.Event{ItemID: "item-1", Action: "reject"})
	if err == nil || !strings.Contains(err.Error(), "leader not available") {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestNewServiceUsesNtfyTopic(t *testing.T) {
	server, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	got := <-requests
	if got.title != "Atelier - Test" || got.priority != "low" {
		t.Fatalf("unexpected test notification %+v", got)
	}
}
