package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReviewStatus is the coarse axis of an item's status.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewApproved  ReviewStatus = "approved"
	ReviewPublished ReviewStatus = "published"
	ReviewRejected  ReviewStatus = "rejected"
)

// Phase is the fine-grained pipeline stage of an approved item.
type Phase string

const (
	PhaseSampling        Phase = "sampling"
	PhaseTechPack        Phase = "tech_pack"
	PhasePreProduction   Phase = "pre_production"
	PhaseMarketplacePrep Phase = "marketplace_prep"
	PhaseHold            Phase = "hold"
)

var knownPhases = map[Phase]struct{}{
	PhaseSampling:        {},
	PhaseTechPack:        {},
	PhasePreProduction:   {},
	PhaseMarketplacePrep: {},
	PhaseHold:            {},
}

// Status is an item's (review status, phase) pair. The zero value is not a
// valid status; use the constructors or ParseStatus.
type Status struct {
	review ReviewStatus
	phase  Phase
}

// Pending is the intake state of every new item.
func Pending() Status { return Status{review: ReviewPending} }

// Approved returns the approved status for the given phase.
func Approved(phase Phase) Status { return Status{review: ReviewApproved, phase: phase} }

// Published is the terminal state reached once the marketplace listing goes live.
func Published() Status { return Status{review: ReviewPublished} }

// Rejected is the terminal state for declined submissions.
func Rejected() Status { return Status{review: ReviewRejected} }

// ParseStatus validates a persisted or user-supplied (review, phase) pair.
func ParseStatus(review, phase string) (Status, error) {
	r := ReviewStatus(strings.ToLower(strings.TrimSpace(review)))
	p := Phase(strings.ToLower(strings.TrimSpace(phase)))
	switch r {
	case ReviewApproved:
		if _, ok := knownPhases[p]; !ok {
			if p == "" {
				return Status{}, fmt.Errorf("approved status requires a phase")
			}
			return Status{}, fmt.Errorf("unknown phase %q", phase)
		}
		return Approved(p), nil
	case ReviewPending, ReviewPublished, ReviewRejected:
		if p != "" {
			return Status{}, fmt.Errorf("%s status cannot carry phase %q", r, phase)
		}
		return Status{review: r}, nil
	default:
		return Status{}, fmt.Errorf("unknown review status %q", review)
	}
}

// ParseStatusString parses the wire form produced by Status.String, for
// example "pending" or "approved/sampling".
func ParseStatusString(value string) (Status, error) {
	review, phase, _ := strings.Cut(strings.TrimSpace(value), "/")
	return ParseStatus(review, phase)
}

func (s Status) Review() ReviewStatus { return s.review }

// Phase returns the pipeline phase, or "" when the item is not approved.
func (s Status) Phase() Phase { return s.phase }

func (s Status) IsZero() bool { return s.review == "" }

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s.review == ReviewPublished || s.review == ReviewRejected
}

func (s Status) String() string {
	if s.phase == "" {
		return string(s.review)
	}
	return string(s.review) + "/" + string(s.phase)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatusString(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Item is a designer submission moving through the readiness pipeline.
type Item struct {
	ID            string
	Title         string
	OwnerID       string
	Status        Status
	SubmittedAt   time.Time
	ReviewedAt    *time.Time
	ReviewerID    string
	ReviewerNotes string
	// Metadata is an opaque designer/category/thumbnail reference.
	Metadata  json.RawMessage
	UpdatedAt time.Time
	Version   int64
}

// Age returns the elapsed time since submission.
func (i *Item) Age(now time.Time) time.Duration {
	if i == nil || i.SubmittedAt.IsZero() {
		return 0
	}
	age := now.Sub(i.SubmittedAt)
	if age < 0 {
		return 0
	}
	return age
}

// EntityTypePipelineItem tags audit entries written by this package.
const EntityTypePipelineItem = "pipeline_item"

// AuditEntry is one row of the system-wide append-only audit trail.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Metadata   json.RawMessage
	CreatedAt  time.Time
}

// ReviewRecord is the per-item history of who moved it and why.
type ReviewRecord struct {
	ID         string
	ItemID     string
	ReviewerID string
	Action     string
	Notes      string
	FromStatus Status
	ToStatus   Status
	CreatedAt  time.Time
}

// OutboxState tracks notification intent delivery.
type OutboxState string

const (
	OutboxPending   OutboxState = "pending"
	OutboxDelivered OutboxState = "delivered"
	OutboxDead      OutboxState = "dead"
)

// ParseOutboxState accepts an outbox state name case-insensitively.
func ParseOutboxState(raw string) (OutboxState, error) {
	switch state := OutboxState(strings.ToLower(strings.TrimSpace(raw))); state {
	case OutboxPending, OutboxDelivered, OutboxDead:
		return state, nil
	default:
		return "", fmt.Errorf("unknown outbox state %q", raw)
	}
}

// OutboxEntry is a notification intent recorded alongside a transition.
type OutboxEntry struct {
	ID            string
	ItemID        string
	OwnerID       string
	Action        string
	ItemTitle     string
	State         OutboxState
	Attempts      int
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
	DeliveredAt   *time.Time
}
