package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransitionRequest is a fully resolved request to move one item.
type TransitionRequest struct {
	ItemID   string
	Action   Action
	ActorID  string
	Notes    string
	Expected Status
	// Notify records an owner notification intent in the outbox.
	Notify bool
}

// MarketplaceActor is recorded when the downstream listing flow publishes an item.
const MarketplaceActor = "system:marketplace"

// ApplyTransition moves an item to the action's target status. The status
// write, review record, audit entry, and optional outbox intent commit
// together or not at all.
//
// The item must exist, must not be terminal, must currently be in
// req.Expected, and must be approved when the action requires it; otherwise a
// *TransitionError is returned and nothing changes.
func (s *Store) ApplyTransition(ctx context.Context, req TransitionRequest) (*Item, error) {
	if req.Action.Token == "" || req.Action.Target.IsZero() {
		return nil, &TransitionError{Kind: KindUnknownAction, ItemID: req.ItemID, Action: req.Action.Token}
	}
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.ActorID = strings.TrimSpace(req.ActorID)
	if req.ItemID == "" {
		return nil, validationError("", "item id is required")
	}
	if req.ActorID == "" {
		return nil, validationError(req.ItemID, "actor id is required")
	}
	if req.Expected.IsZero() {
		return nil, validationError(req.ItemID, "expected current status is required")
	}

	var updated *Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		item, err := s.transitionTx(ctx, tx, req)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkPublished records that the marketplace listing for an item went live.
// Only items in approved/marketplace_prep can be published.
func (s *Store) MarkPublished(ctx context.Context, itemID, notes string, notify bool) (*Item, error) {
	return s.ApplyTransition(ctx, TransitionRequest{
		ItemID:   itemID,
		Action:   publishAction,
		ActorID:  MarketplaceActor,
		Notes:    notes,
		Expected: Approved(PhaseMarketplacePrep),
		Notify:   notify,
	})
}

func (s *Store) transitionTx(ctx context.Context, tx *sql.Tx, req TransitionRequest) (*Item, error) {
	current, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+strings.Join(itemColumns, ", ")+` FROM pipeline_items WHERE id = ?`, req.ItemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &TransitionError{Kind: KindNotFound, ItemID: req.ItemID, Action: req.Action.Token}
	}
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}
	if current.Status.IsTerminal() {
		return nil, &TransitionError{
			Kind:     KindTerminal,
			ItemID:   req.ItemID,
			Action:   req.Action.Token,
			Current:  current.Status,
			Expected: req.Expected,
		}
	}
	if current.Status != req.Expected {
		return nil, conflictError(req, current.Status)
	}
	if !req.Action.AllowedFrom(current.Status) {
		return nil, &TransitionError{
			Kind:     KindValidation,
			ItemID:   req.ItemID,
			Action:   req.Action.Token,
			Current:  current.Status,
			Expected: req.Expected,
			Reason:   fmt.Sprintf("%s needs an approved item, this one is %s; start sampling first", req.Action.Label, current.Status),
		}
	}

	now := s.clock()
	target := req.Action.Target
	res, err := tx.ExecContext(ctx,
		`UPDATE pipeline_items
         SET review_status = ?, phase = ?, reviewed_at = ?, reviewer_id = ?,
             reviewer_notes = ?, updated_at = ?, version = version + 1
         WHERE id = ? AND review_status = ? AND phase IS ? AND version = ?`,
		string(target.Review()),
		phaseValue(target),
		formatTime(now),
		req.ActorID,
		nullableString(req.Notes),
		formatTime(now),
		req.ItemID,
		string(current.Status.Review()),
		phaseValue(current.Status),
		current.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("update item status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update item status: %w", err)
	}
	if affected == 0 {
		return nil, conflictError(req, current.Status)
	}

	reviewID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO review_records (id, item_id, reviewer_id, action, notes, from_status, to_status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reviewID,
		req.ItemID,
		req.ActorID,
		req.Action.Token,
		nullableString(req.Notes),
		current.Status.String(),
		target.String(),
		formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert review record: %w", err)
	}

	if err := insertAudit(ctx, tx, auditRow{
		actorID:  req.ActorID,
		action:   req.Action.Token,
		entityID: req.ItemID,
		snapshot: auditSnapshot{
			Notes:          req.Notes,
			FromStatus:     current.Status.String(),
			ToStatus:       target.String(),
			ReviewRecordID: reviewID,
		},
		at: now,
	}); err != nil {
		return nil, err
	}

	if req.Notify {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notification_outbox (
                id, item_id, owner_id, action, item_title, state, attempts, created_at, next_attempt_at
            ) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			uuid.NewString(),
			req.ItemID,
			current.OwnerID,
			req.Action.Token,
			current.Title,
			string(OutboxPending),
			formatTime(now),
			formatTime(now),
		); err != nil {
			return nil, fmt.Errorf("enqueue notification: %w", err)
		}
	}

	updated := *current
	updated.Status = target
	updated.ReviewedAt = &now
	updated.ReviewerID = req.ActorID
	updated.ReviewerNotes = req.Notes
	updated.UpdatedAt = now
	updated.Version = current.Version + 1
	return &updated, nil
}

func conflictError(req TransitionRequest, current Status) *TransitionError {
	return &TransitionError{
		Kind:     KindConflict,
		ItemID:   req.ItemID,
		Action:   req.Action.Token,
		Current:  current,
		Expected: req.Expected,
	}
}

// auditSnapshot is the metadata stored with every pipeline audit entry.
type auditSnapshot struct {
	Title          string `json:"title,omitempty"`
	Notes          string `json:"notes,omitempty"`
	FromStatus     string `json:"from_status,omitempty"`
	ToStatus       string `json:"to_status"`
	ReviewRecordID string `json:"review_record_id,omitempty"`
}

type auditRow struct {
	actorID  string
	action   string
	entityID string
	snapshot auditSnapshot
	at       time.Time
}

func insertAudit(ctx context.Context, tx *sql.Tx, row auditRow) error {
	payload, err := json.Marshal(row.snapshot)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, metadata_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		row.actorID,
		row.action,
		EntityTypePipelineItem,
		row.entityID,
		string(payload),
		formatTime(row.at),
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
