package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Submission describes a new item handed over by the intake flow.
type Submission struct {
	Title    string
	OwnerID  string
	Metadata json.RawMessage
	// ActorID is recorded on the intake audit entry; defaults to OwnerID.
	ActorID string
}

// ActionSubmit is the audit action recorded for intake.
const ActionSubmit = "submit"

// Submit inserts a new item in the pending status with submitted_at set to now.
func (s *Store) Submit(ctx context.Context, sub Submission) (*Item, error) {
	title := strings.TrimSpace(sub.Title)
	owner := strings.TrimSpace(sub.OwnerID)
	if title == "" {
		return nil, validationError("", "title is required")
	}
	if owner == "" {
		return nil, validationError("", "owner id is required")
	}
	var metadata any
	if len(sub.Metadata) > 0 {
		if !json.Valid(sub.Metadata) {
			return nil, validationError("", "metadata must be valid JSON")
		}
		metadata = string(sub.Metadata)
	}
	actor := strings.TrimSpace(sub.ActorID)
	if actor == "" {
		actor = owner
	}

	now := s.clock()
	item := &Item{
		ID:          uuid.NewString(),
		Title:       title,
		OwnerID:     owner,
		Status:      Pending(),
		SubmittedAt: now,
		Metadata:    sub.Metadata,
		UpdatedAt:   now,
		Version:     1,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pipeline_items (
                id, title, owner_id, review_status, phase, submitted_at,
                metadata_json, updated_at, version
            ) VALUES (?, ?, ?, ?, NULL, ?, ?, ?, ?)`,
			item.ID,
			item.Title,
			item.OwnerID,
			string(ReviewPending),
			formatTime(now),
			metadata,
			formatTime(now),
			item.Version,
		); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		return insertAudit(ctx, tx, auditRow{
			actorID:  actor,
			action:   ActionSubmit,
			entityID: item.ID,
			snapshot: auditSnapshot{ToStatus: item.Status.String(), Title: item.Title},
			at:       now,
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetByID fetches a single item. It returns nil, nil when the item does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Item, error) {
	query, args, err := sq.Select(itemColumns...).
		From("pipeline_items").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build item query: %w", err)
	}
	item, err := scanItem(s.db.QueryRowContext(ensureContext(ctx), query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListOptions filters List results.
type ListOptions struct {
	// Statuses restricts results to these statuses; empty means every item.
	Statuses []Status
	Limit    uint64
}

// List returns items oldest-submission first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Item, error) {
	builder := sq.Select(itemColumns...).
		From("pipeline_items").
		OrderBy("submitted_at ASC", "id ASC")
	if len(opts.Statuses) > 0 {
		builder = builder.Where(statusPredicate(opts.Statuses))
	}
	if opts.Limit > 0 {
		builder = builder.Limit(opts.Limit)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListQueue returns the items in the named queue, oldest first.
func (s *Store) ListQueue(ctx context.Context, name QueueName) ([]*Item, error) {
	statuses, err := StatusesForQueue(name)
	if err != nil {
		return nil, err
	}
	return s.List(ctx, ListOptions{Statuses: statuses})
}
