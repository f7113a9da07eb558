package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var itemColumns = []string{
	"id", "title", "owner_id", "review_status", "phase", "submitted_at",
	"reviewed_at", "reviewer_id", "reviewer_notes", "metadata_json",
	"updated_at", "version",
}

var reviewColumns = []string{
	"id", "item_id", "reviewer_id", "action", "notes", "from_status", "to_status", "created_at",
}

var auditColumns = []string{
	"id", "actor_id", "action", "entity_type", "entity_id", "metadata_json", "created_at",
}

var outboxColumns = []string{
	"id", "item_id", "owner_id", "action", "item_title", "state", "attempts",
	"last_error", "created_at", "next_attempt_at", "delivered_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		item         Item
		review       string
		phase        sql.NullString
		submittedRaw string
		reviewedRaw  sql.NullString
		reviewerID   sql.NullString
		notes        sql.NullString
		metadata     sql.NullString
		updatedRaw   string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.Title,
		&item.OwnerID,
		&review,
		&phase,
		&submittedRaw,
		&reviewedRaw,
		&reviewerID,
		&notes,
		&metadata,
		&updatedRaw,
		&item.Version,
	); err != nil {
		return nil, err
	}

	status, err := ParseStatus(review, phase.String)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	item.Status = status
	item.ReviewerID = reviewerID.String
	item.ReviewerNotes = notes.String
	if metadata.Valid && metadata.String != "" {
		item.Metadata = json.RawMessage(metadata.String)
	}
	if submitted, err := parseTimeString(submittedRaw); err == nil {
		item.SubmittedAt = submitted
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	item.ReviewedAt = parseNullableTime(reviewedRaw)
	return &item, nil
}

func scanReviewRecord(scanner rowScanner) (ReviewRecord, error) {
	var (
		record     ReviewRecord
		notes      sql.NullString
		fromRaw    string
		toRaw      string
		createdRaw string
	)
	if err := scanner.Scan(
		&record.ID,
		&record.ItemID,
		&record.ReviewerID,
		&record.Action,
		&notes,
		&fromRaw,
		&toRaw,
		&createdRaw,
	); err != nil {
		return ReviewRecord{}, err
	}
	record.Notes = notes.String
	from, err := ParseStatusString(fromRaw)
	if err != nil {
		return ReviewRecord{}, fmt.Errorf("review record %s: %w", record.ID, err)
	}
	to, err := ParseStatusString(toRaw)
	if err != nil {
		return ReviewRecord{}, fmt.Errorf("review record %s: %w", record.ID, err)
	}
	record.FromStatus = from
	record.ToStatus = to
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}

func scanAuditEntry(scanner rowScanner) (AuditEntry, error) {
	var (
		entry      AuditEntry
		metadata   sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.ActorID,
		&entry.Action,
		&entry.EntityType,
		&entry.EntityID,
		&metadata,
		&createdRaw,
	); err != nil {
		return AuditEntry{}, err
	}
	if metadata.Valid && metadata.String != "" {
		entry.Metadata = json.RawMessage(metadata.String)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}

func scanOutboxEntry(scanner rowScanner) (OutboxEntry, error) {
	var (
		entry        OutboxEntry
		state        string
		lastError    sql.NullString
		createdRaw   string
		nextRaw      string
		deliveredRaw sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.ItemID,
		&entry.OwnerID,
		&entry.Action,
		&entry.ItemTitle,
		&state,
		&entry.Attempts,
		&lastError,
		&createdRaw,
		&nextRaw,
		&deliveredRaw,
	); err != nil {
		return OutboxEntry{}, err
	}
	entry.State = OutboxState(state)
	entry.LastError = lastError.String
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if next, err := parseTimeString(nextRaw); err == nil {
		entry.NextAttemptAt = next
	}
	entry.DeliveredAt = parseNullableTime(deliveredRaw)
	return entry, nil
}

// statusPredicate matches rows whose (review_status, phase) pair is one of statuses.
func statusPredicate(statuses []Status) sq.Sqlizer {
	or := sq.Or{}
	for _, status := range statuses {
		or = append(or, sq.Eq{
			"review_status": string(status.Review()),
			"phase":         phaseValue(status),
		})
	}
	return or
}

func phaseValue(status Status) any {
	return nullableString(string(status.Phase()))
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

// storedTimeLayout keeps a fixed-width fraction so stored timestamps compare
// and sort as text in time order.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	return value.UTC().Format(storedTimeLayout)
}

func parseNullableTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	parsed, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
