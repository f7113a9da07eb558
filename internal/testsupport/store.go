package testsupport

import (
	"context"
	"testing"
	"time"

	"atelier/internal/config"
	"atelier/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...queue.Option) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Clock is a settable time source for stores and engines under test.
type Clock struct {
	now time.Time
}

// NewClock starts a clock at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Set(now time.Time) { c.now = now }

func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// Submit creates a pending item for tests using the provided store.
func Submit(t testing.TB, store *queue.Store, title, owner string) *queue.Item {
	t.Helper()

	item, err := store.Submit(context.Background(), queue.Submission{Title: title, OwnerID: owner})
	if err != nil {
		t.Fatalf("store.Submit: %v", err)
	}
	return item
}

// Apply runs an operator action against the item's current status.
func Apply(t testing.TB, store *queue.Store, item *queue.Item, action, actor string) *queue.Item {
	t.Helper()

	resolved, err := queue.ParseAction(action)
	if err != nil {
		t.Fatalf("queue.ParseAction(%q): %v", action, err)
	}
	updated, err := store.ApplyTransition(context.Background(), queue.TransitionRequest{
		ItemID:   item.ID,
		Action:   resolved,
		ActorID:  actor,
		Expected: item.Status,
		Notify:   resolved.NotifiesOwner,
	})
	if err != nil {
		t.Fatalf("ApplyTransition(%s): %v", action, err)
	}
	return updated
}
