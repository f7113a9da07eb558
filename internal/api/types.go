package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// PipelineItem describes an item in a transport-friendly format.
type PipelineItem struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	OwnerID       string          `json:"ownerId"`
	Status        string          `json:"status"`
	ReviewStatus  string          `json:"reviewStatus"`
	Phase         string          `json:"phase,omitempty"`
	Queue         string          `json:"queue,omitempty"`
	Priority      string          `json:"priority"`
	AgeHours      float64         `json:"ageHours"`
	SubmittedAt   string          `json:"submittedAt"`
	ReviewedAt    string          `json:"reviewedAt,omitempty"`
	ReviewerID    string          `json:"reviewerId,omitempty"`
	ReviewerNotes string          `json:"reviewerNotes,omitempty"`
	UpdatedAt     string          `json:"updatedAt,omitempty"`
	Version       int64           `json:"version"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// QueueListResponse wraps a queue listing.
type QueueListResponse struct {
	Queue string         `json:"queue"`
	Items []PipelineItem `json:"items"`
}

// ItemResponse wraps a single item, optionally with the actions it accepts.
type ItemResponse struct {
	Item    PipelineItem `json:"item"`
	Actions []ActionInfo `json:"actions,omitempty"`
}

// ActionInfo describes one operator action.
type ActionInfo struct {
	Token         string `json:"token"`
	Label         string `json:"label"`
	Target        string `json:"target"`
	NotifiesOwner bool   `json:"notifiesOwner"`
}

// QueueStats is the pipeline summary payload.
type QueueStats struct {
	Queues          map[string]int `json:"queues"`
	Urgent          int            `json:"urgent"`
	CompletedToday  int            `json:"completedToday"`
	AvgWaitHours    float64        `json:"avgWaitHours"`
	WaitSamples     int            `json:"waitSamples"`
	WaitWindowHours float64        `json:"waitWindowHours"`
	Total           int            `json:"total"`
	OnHold          int            `json:"onHold"`
	Published       int            `json:"published"`
	Rejected        int            `json:"rejected"`
	ComputedAt      string         `json:"computedAt"`
}

// ApplyActionRequest is the body of POST /api/items/{id}/actions.
type ApplyActionRequest struct {
	Action         string `json:"action"`
	ActorID        string `json:"actorId"`
	Notes          string `json:"notes,omitempty"`
	ExpectedStatus string `json:"expectedStatus"`
}

// PublishRequest is the body of POST /api/items/{id}/published.
type PublishRequest struct {
	Notes string `json:"notes,omitempty"`
}

// SubmitRequest is the body of POST /api/items.
type SubmitRequest struct {
	Title    string          `json:"title"`
	OwnerID  string          `json:"ownerId"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ReviewRecord is one entry of an item's review history.
type ReviewRecord struct {
	ID         string `json:"id"`
	ReviewerID string `json:"reviewerId"`
	Action     string `json:"action"`
	Notes      string `json:"notes,omitempty"`
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus"`
	CreatedAt  string `json:"createdAt"`
}

// AuditEntry is one entry of the audit trail.
type AuditEntry struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

// HistoryResponse is an item's review and audit trail.
type HistoryResponse struct {
	ItemID  string         `json:"itemId"`
	Reviews []ReviewRecord `json:"reviews"`
	Audit   []AuditEntry   `json:"audit"`
}

// OutboxEntry is a notification intent as exposed to operators.
type OutboxEntry struct {
	ID            string `json:"id"`
	ItemID        string `json:"itemId"`
	OwnerID       string `json:"ownerId"`
	Action        string `json:"action"`
	ItemTitle     string `json:"itemTitle"`
	State         string `json:"state"`
	Attempts      int    `json:"attempts"`
	LastError     string `json:"lastError,omitempty"`
	CreatedAt     string `json:"createdAt"`
	NextAttemptAt string `json:"nextAttemptAt,omitempty"`
	DeliveredAt   string `json:"deliveredAt,omitempty"`
}

// OutboxListResponse wraps outbox entries.
type OutboxListResponse struct {
	Entries []OutboxEntry `json:"entries"`
}

// OutboxRetryRequest is the body of POST /api/outbox/retry. No ids requeues
// every dead entry.
type OutboxRetryRequest struct {
	IDs []string `json:"ids,omitempty"`
}

// OutboxRetryResponse reports how many dead entries were requeued.
type OutboxRetryResponse struct {
	Requeued int64 `json:"requeued"`
}

// DispatcherStatus mirrors the outbox dispatcher's activity counters.
type DispatcherStatus struct {
	Running   bool   `json:"running"`
	LastRun   string `json:"lastRun,omitempty"`
	LastError string `json:"lastError,omitempty"`
	Delivered int    `json:"delivered"`
	Retried   int    `json:"retried"`
	Dead      int    `json:"dead"`
}

// DatabaseHealth mirrors queue.DatabaseHealth.
type DatabaseHealth struct {
	DBPath           string `json:"dbPath"`
	DatabaseExists   bool   `json:"databaseExists"`
	DatabaseReadable bool   `json:"databaseReadable"`
	SchemaVersion    int    `json:"schemaVersion"`
	IntegrityCheck   bool   `json:"integrityCheck"`
	TotalItems       int    `json:"totalItems"`
	PendingOutbox    int    `json:"pendingOutbox"`
	DeadOutbox       int    `json:"deadOutbox"`
	Error            string `json:"error,omitempty"`
}

// DaemonStatus aggregates daemon runtime information.
type DaemonStatus struct {
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	QueueDBPath  string           `json:"queueDbPath"`
	LockFilePath string           `json:"lockFilePath"`
	APIAddress   string           `json:"apiAddress,omitempty"`
	Dispatcher   DispatcherStatus `json:"dispatcher"`
	Database     DatabaseHealth   `json:"database"`
}
