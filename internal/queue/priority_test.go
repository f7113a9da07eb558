package queue_test

import (
	"testing"
	"time"

	"atelier/internal/queue"
)

func TestPriorityForAgeThresholds(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want queue.Priority
	}{
		{0, queue.PriorityLow},
		{11*time.Hour + 59*time.Minute, queue.PriorityLow},
		{12 * time.Hour, queue.PriorityNormal},
		{48 * time.Hour, queue.PriorityNormal},
		{48*time.Hour + time.Second, queue.PriorityHigh},
		{72 * time.Hour, queue.PriorityHigh},
		{72*time.Hour + time.Second, queue.PriorityUrgent},
		{30 * 24 * time.Hour, queue.PriorityUrgent},
	}
	for _, tc := range cases {
		if got := queue.PriorityForAge(tc.age); got != tc.want {
			t.Fatalf("age %s: got %s, want %s", tc.age, got, tc.want)
		}
	}
}

func TestPriorityNeverDecreasesWithTime(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item := &queue.Item{Status: queue.Pending(), SubmittedAt: submitted}

	last := queue.PriorityLow
	for step := 0; step <= 24*5*4; step++ {
		now := submitted.Add(time.Duration(step) * 15 * time.Minute)
		got := queue.EstimatePriority(item, now)
		if got < last {
			t.Fatalf("priority dropped from %s to %s at %s", last, got, now)
		}
		last = got
	}
	if last != queue.PriorityUrgent {
		t.Fatalf("expected urgent after five days, got %s", last)
	}
}

func TestPriorityClampsFutureSubmission(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item := &queue.Item{SubmittedAt: now.Add(time.Hour)}
	if got := queue.EstimatePriority(item, now); got != queue.PriorityLow {
		t.Fatalf("expected low for clock skew, got %s", got)
	}
}
