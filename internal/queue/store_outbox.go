package queue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// outboxClaimLease pushes claimed entries out of the due set so a crashed
// delivery attempt is picked up again later instead of immediately.
const outboxClaimLease = time.Minute

// RetryPolicy controls how failed deliveries are rescheduled.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Backoff returns the delay before the next attempt after attempts failures.
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	delay := p.BaseBackoff
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < attempts; i++ {
		delay *= 2
		if p.MaxBackoff > 0 && delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}

// ClaimOutbox returns up to limit pending entries due at now and leases them.
func (s *Store) ClaimOutbox(ctx context.Context, now time.Time, limit int) ([]OutboxEntry, error) {
	if limit <= 0 {
		limit = 1
	}
	query, args, err := sq.Select(outboxColumns...).
		From("notification_outbox").
		Where(sq.Eq{"state": string(OutboxPending)}).
		Where(sq.LtOrEq{"next_attempt_at": formatTime(now)}).
		OrderBy("created_at ASC", "rowid ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build outbox claim query: %w", err)
	}

	var claimed []OutboxEntry
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		claimed = claimed[:0]
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query due outbox: %w", err)
		}
		for rows.Next() {
			entry, err := scanOutboxEntry(rows)
			if err != nil {
				rows.Close()
				return err
			}
			claimed = append(claimed, entry)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]string, 0, len(claimed))
		for _, entry := range claimed {
			ids = append(ids, entry.ID)
		}
		update, updateArgs, err := sq.Update("notification_outbox").
			Set("next_attempt_at", formatTime(now.Add(outboxClaimLease))).
			Where(sq.Eq{"id": ids}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build outbox lease: %w", err)
		}
		if _, err := tx.ExecContext(ctx, update, updateArgs...); err != nil {
			return fmt.Errorf("lease outbox entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkOutboxDelivered records a successful delivery.
func (s *Store) MarkOutboxDelivered(ctx context.Context, id string, at time.Time) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE notification_outbox
         SET state = ?, attempts = attempts + 1, delivered_at = ?, last_error = NULL
         WHERE id = ?`,
		string(OutboxDelivered),
		formatTime(at),
		id,
	); err != nil {
		return fmt.Errorf("mark outbox delivered: %w", err)
	}
	return nil
}

// MarkOutboxFailed records a failed delivery and either reschedules the entry
// or marks it dead once policy.MaxAttempts is reached. It returns the entry's
// resulting state.
func (s *Store) MarkOutboxFailed(ctx context.Context, id string, cause error, now time.Time, policy RetryPolicy) (OutboxState, error) {
	message := "delivery failed"
	if cause != nil {
		message = cause.Error()
	}

	state := OutboxPending
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var attempts int
		if err := tx.QueryRowContext(ctx,
			`SELECT attempts FROM notification_outbox WHERE id = ?`, id,
		).Scan(&attempts); err != nil {
			return fmt.Errorf("load outbox entry %s: %w", id, err)
		}
		attempts++

		state = OutboxPending
		next := now.Add(policy.Backoff(attempts))
		if policy.MaxAttempts > 0 && attempts >= policy.MaxAttempts {
			state = OutboxDead
			next = now
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE notification_outbox
             SET state = ?, attempts = ?, last_error = ?, next_attempt_at = ?
             WHERE id = ?`,
			string(state),
			attempts,
			message,
			formatTime(next),
			id,
		); err != nil {
			return fmt.Errorf("mark outbox failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// ListOutbox returns outbox entries in the given states, newest first. No
// states means every entry.
func (s *Store) ListOutbox(ctx context.Context, limit uint64, states ...OutboxState) ([]OutboxEntry, error) {
	builder := sq.Select(outboxColumns...).
		From("notification_outbox").
		OrderBy("created_at DESC", "rowid DESC")
	if len(states) > 0 {
		values := make([]string, 0, len(states))
		for _, state := range states {
			values = append(values, string(state))
		}
		builder = builder.Where(sq.Eq{"state": values})
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build outbox query: %w", err)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		entry, err := scanOutboxEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RetryOutbox moves dead entries back to pending with a fresh attempt budget.
// With no ids, every dead entry is retried.
func (s *Store) RetryOutbox(ctx context.Context, ids ...string) (int64, error) {
	builder := sq.Update("notification_outbox").
		Set("state", string(OutboxPending)).
		Set("attempts", 0).
		Set("next_attempt_at", formatTime(s.clock())).
		Where(sq.Eq{"state": string(OutboxDead)})
	var filtered []string
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			filtered = append(filtered, trimmed)
		}
	}
	if len(filtered) > 0 {
		builder = builder.Where(sq.Eq{"id": filtered})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build outbox retry: %w", err)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry outbox: %w", err)
	}
	return res.RowsAffected()
}
