package queue

import "time"

// StatsOptions controls the time-dependent parts of ComputeStats.
type StatsOptions struct {
	// Location decides the calendar day for CompletedToday. Nil means UTC.
	Location *time.Location
	// WaitWindow bounds which reviews feed AvgWait. Zero or negative means
	// DefaultWaitWindow.
	WaitWindow time.Duration
}

// DefaultWaitWindow is the trailing window used for the average wait time.
const DefaultWaitWindow = 7 * 24 * time.Hour

// Stats summarizes the pipeline for operator dashboards. It is derived on
// every request and never persisted.
type Stats struct {
	Queues         map[QueueName]int
	Urgent         int
	CompletedToday int
	AvgWait        time.Duration
	// WaitSamples is the number of reviewed items AvgWait was computed from.
	WaitSamples int
	Total       int
	OnHold      int
	Published   int
	Rejected    int
	WaitWindow  time.Duration
	ComputedAt  time.Time
}

// ComputeStats derives queue counts and triage aggregates from items.
func ComputeStats(items []*Item, now time.Time, opts StatsOptions) Stats {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	window := opts.WaitWindow
	if window <= 0 {
		window = DefaultWaitWindow
	}

	stats := Stats{
		Queues:     make(map[QueueName]int, len(queueStatuses)),
		WaitWindow: window,
		ComputedAt: now,
	}
	for _, name := range ActiveQueues() {
		stats.Queues[name] = 0
	}

	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	windowStart := now.Add(-window)

	var waitTotal time.Duration
	for _, item := range items {
		if item == nil {
			continue
		}
		stats.Total++
		for _, name := range Classify(item) {
			stats.Queues[name]++
		}

		switch item.Status.Review() {
		case ReviewPublished:
			stats.Published++
		case ReviewRejected:
			stats.Rejected++
		}
		if item.Status.Phase() == PhaseHold {
			stats.OnHold++
		}

		if !item.Status.IsTerminal() && EstimatePriority(item, now) == PriorityUrgent {
			stats.Urgent++
		}

		if item.ReviewedAt == nil {
			continue
		}
		reviewed := *item.ReviewedAt
		if item.Status.Review() == ReviewPublished && !reviewed.Before(dayStart) && reviewed.Before(dayEnd) {
			stats.CompletedToday++
		}
		if !reviewed.Before(windowStart) && !reviewed.After(now) {
			if wait := reviewed.Sub(item.SubmittedAt); wait >= 0 {
				waitTotal += wait
				stats.WaitSamples++
			}
		}
	}

	if stats.WaitSamples > 0 {
		stats.AvgWait = waitTotal / time.Duration(stats.WaitSamples)
	}
	return stats
}
