package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"atelier/internal/config"
	"atelier/internal/logging"
	"atelier/internal/notifications"
	"atelier/internal/queue"
	"atelier/internal/testsupport"
	"atelier/internal/workflow"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	fail   error
}

func (r *recordingNotifier) NotifyTransition(_ context.Context, event notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func (r *recordingNotifier) setFail(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

func (r *recordingNotifier) Events() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

var errTransportDown = errors.New("transport down")

type harness struct {
	cfg    *config.Config
	clock  *testsupport.Clock
	store  *queue.Store
	engine *workflow.Engine
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	clock := testsupport.NewClock(time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC))
	store := testsupport.MustOpenStore(t, cfg, queue.WithClock(clock.Now))
	engine := workflow.NewEngine(cfg, store, logging.NewNop(), workflow.WithClock(clock.Now))
	return &harness{cfg: cfg, clock: clock, store: store, engine: engine}
}

func (h *harness) submit(t *testing.T, title string) *queue.Item {
	t.Helper()
	item, err := h.engine.Submit(context.Background(), queue.Submission{Title: title, OwnerID: "designer-1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return item
}

func (h *harness) apply(t *testing.T, item *queue.Item, action string) *queue.Item {
	t.Helper()
	updated, err := h.engine.Apply(context.Background(), workflow.ApplyRequest{
		ItemID:   item.ID,
		Action:   action,
		ActorID:  "admin-1",
		Expected: item.Status,
	})
	if err != nil {
		t.Fatalf("Apply(%s): %v", action, err)
	}
	return updated
}
