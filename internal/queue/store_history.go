package queue

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// ListReviewRecords returns an item's review history, oldest first.
func (s *Store) ListReviewRecords(ctx context.Context, itemID string) ([]ReviewRecord, error) {
	query, args, err := sq.Select(reviewColumns...).
		From("review_records").
		Where(sq.Eq{"item_id": itemID}).
		OrderBy("created_at ASC", "rowid ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review query: %w", err)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list review records: %w", err)
	}
	defer rows.Close()

	var records []ReviewRecord
	for rows.Next() {
		record, err := scanReviewRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// AuditFilter narrows ListAuditEntries.
type AuditFilter struct {
	EntityID string
	ActorID  string
	Action   string
	Limit    uint64
}

// ListAuditEntries returns pipeline audit entries matching filter, oldest first.
func (s *Store) ListAuditEntries(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	builder := sq.Select(auditColumns...).
		From("audit_log").
		Where(sq.Eq{"entity_type": EntityTypePipelineItem}).
		OrderBy("created_at ASC", "rowid ASC")
	if filter.EntityID != "" {
		builder = builder.Where(sq.Eq{"entity_id": filter.EntityID})
	}
	if filter.ActorID != "" {
		builder = builder.Where(sq.Eq{"actor_id": filter.ActorID})
	}
	if filter.Action != "" {
		builder = builder.Where(sq.Eq{"action": filter.Action})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
