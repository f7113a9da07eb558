package api

import (
	"sort"
	"time"

	"atelier/internal/queue"
	"atelier/internal/workflow"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func hours(d time.Duration) float64 {
	return float64(d.Round(time.Minute)) / float64(time.Hour)
}

// FromItem converts a store record to its API representation using now for
// the derived priority and age.
func FromItem(item *queue.Item, now time.Time) PipelineItem {
	if item == nil {
		return PipelineItem{}
	}
	var name queue.QueueName
	if queues := queue.Classify(item); len(queues) > 0 {
		name = queues[0]
	}
	return fromAnnotated(item, name, queue.EstimatePriority(item, now), item.Age(now))
}

func fromAnnotated(item *queue.Item, name queue.QueueName, priority queue.Priority, age time.Duration) PipelineItem {
	if item == nil {
		return PipelineItem{}
	}
	dto := PipelineItem{
		ID:            item.ID,
		Title:         item.Title,
		OwnerID:       item.OwnerID,
		Status:        item.Status.String(),
		ReviewStatus:  string(item.Status.Review()),
		Phase:         string(item.Status.Phase()),
		Queue:         string(name),
		Priority:      priority.String(),
		AgeHours:      hours(age),
		SubmittedAt:   formatTime(item.SubmittedAt),
		ReviewerID:    item.ReviewerID,
		ReviewerNotes: item.ReviewerNotes,
		UpdatedAt:     formatTime(item.UpdatedAt),
		Version:       item.Version,
		Metadata:      item.Metadata,
	}
	if item.ReviewedAt != nil {
		dto.ReviewedAt = formatTime(*item.ReviewedAt)
	}
	return dto
}

// FromQueueEntries converts a queue listing, keeping the triage fields the
// engine computed.
func FromQueueEntries(name queue.QueueName, entries []workflow.QueueEntry) QueueListResponse {
	resp := QueueListResponse{Queue: string(name), Items: make([]PipelineItem, 0, len(entries))}
	for _, entry := range entries {
		resp.Items = append(resp.Items, fromAnnotated(entry.Item, entry.Queue, entry.Priority, entry.Age))
	}
	return resp
}

// FromItemDetail converts a described item.
func FromItemDetail(detail *workflow.ItemDetail) ItemResponse {
	if detail == nil {
		return ItemResponse{}
	}
	return ItemResponse{
		Item:    fromAnnotated(detail.Item, detail.Queue, detail.Priority, detail.Age),
		Actions: FromActions(detail.Actions),
	}
}

// FromActions converts the action table.
func FromActions(actions []queue.Action) []ActionInfo {
	if len(actions) == 0 {
		return nil
	}
	out := make([]ActionInfo, 0, len(actions))
	for _, action := range actions {
		out = append(out, ActionInfo{
			Token:         action.Token,
			Label:         action.Label,
			Target:        action.Target.String(),
			NotifiesOwner: action.NotifiesOwner,
		})
	}
	return out
}

// FromStats converts the pipeline summary.
func FromStats(stats queue.Stats) QueueStats {
	dto := QueueStats{
		Queues:          make(map[string]int, len(stats.Queues)),
		Urgent:          stats.Urgent,
		CompletedToday:  stats.CompletedToday,
		AvgWaitHours:    hours(stats.AvgWait),
		WaitSamples:     stats.WaitSamples,
		WaitWindowHours: hours(stats.WaitWindow),
		Total:           stats.Total,
		OnHold:          stats.OnHold,
		Published:       stats.Published,
		Rejected:        stats.Rejected,
		ComputedAt:      formatTime(stats.ComputedAt),
	}
	for name, count := range stats.Queues {
		dto.Queues[string(name)] = count
	}
	return dto
}

// FromHistory converts an item's review and audit trail.
func FromHistory(itemID string, history workflow.History) HistoryResponse {
	resp := HistoryResponse{
		ItemID:  itemID,
		Reviews: make([]ReviewRecord, 0, len(history.Reviews)),
		Audit:   make([]AuditEntry, 0, len(history.Audit)),
	}
	for _, record := range history.Reviews {
		resp.Reviews = append(resp.Reviews, ReviewRecord{
			ID:         record.ID,
			ReviewerID: record.ReviewerID,
			Action:     record.Action,
			Notes:      record.Notes,
			FromStatus: record.FromStatus.String(),
			ToStatus:   record.ToStatus.String(),
			CreatedAt:  formatTime(record.CreatedAt),
		})
	}
	for _, entry := range history.Audit {
		resp.Audit = append(resp.Audit, AuditEntry{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Metadata:   entry.Metadata,
			CreatedAt:  formatTime(entry.CreatedAt),
		})
	}
	return resp
}

// FromOutboxEntries converts outbox rows.
func FromOutboxEntries(entries []queue.OutboxEntry) OutboxListResponse {
	resp := OutboxListResponse{Entries: make([]OutboxEntry, 0, len(entries))}
	for _, entry := range entries {
		dto := OutboxEntry{
			ID:        entry.ID,
			ItemID:    entry.ItemID,
			OwnerID:   entry.OwnerID,
			Action:    entry.Action,
			ItemTitle: entry.ItemTitle,
			State:     string(entry.State),
			Attempts:  entry.Attempts,
			LastError: entry.LastError,
			CreatedAt: formatTime(entry.CreatedAt),
		}
		if entry.State == queue.OutboxPending {
			dto.NextAttemptAt = formatTime(entry.NextAttemptAt)
		}
		if entry.DeliveredAt != nil {
			dto.DeliveredAt = formatTime(*entry.DeliveredAt)
		}
		resp.Entries = append(resp.Entries, dto)
	}
	return resp
}

// FromDispatcherStatus converts dispatcher counters.
func FromDispatcherStatus(status workflow.DispatcherStatus) DispatcherStatus {
	return DispatcherStatus{
		Running:   status.Running,
		LastRun:   formatTime(status.LastRun),
		LastError: status.LastError,
		Delivered: status.Delivered,
		Retried:   status.Retried,
		Dead:      status.Dead,
	}
}

// FromDatabaseHealth converts store diagnostics.
func FromDatabaseHealth(health queue.DatabaseHealth) DatabaseHealth {
	return DatabaseHealth{
		DBPath:           health.DBPath,
		DatabaseExists:   health.DatabaseExists,
		DatabaseReadable: health.DatabaseReadable,
		SchemaVersion:    health.SchemaVersion,
		IntegrityCheck:   health.IntegrityCheck,
		TotalItems:       health.TotalItems,
		PendingOutbox:    health.PendingOutbox,
		DeadOutbox:       health.DeadOutbox,
		Error:            health.Error,
	}
}

// SortedQueueCounts returns queue counts in pipeline order for rendering.
func SortedQueueCounts(counts map[string]int) []QueueCount {
	order := map[string]int{}
	for i, name := range queue.ActiveQueues() {
		order[string(name)] = i
	}
	out := make([]QueueCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, QueueCount{Queue: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := order[out[i].Queue]
		oj, jok := order[out[j].Queue]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return out[i].Queue < out[j].Queue
	})
	return out
}

// QueueCount is a single queue's item count.
type QueueCount struct {
	Queue string
	Count int
}
