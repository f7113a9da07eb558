package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"atelier/internal/config"
	"atelier/internal/logging"
	"atelier/internal/notifications"
	"atelier/internal/queue"
)

// Dispatcher drains the notification outbox on a poll interval.
type Dispatcher struct {
	store    *queue.Store
	notifier notifications.Service
	logger   *slog.Logger

	pollInterval time.Duration
	batchSize    int
	sendTimeout  time.Duration
	policy       queue.RetryPolicy
	now          func() time.Time

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastRun   time.Time
	delivered int
	failed    int
	dead      int
}

// DispatcherOption configures optional Dispatcher behavior.
type DispatcherOption func(*Dispatcher)

// WithDispatcherClock overrides the clock used to decide which entries are due.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher constructs a dispatcher using the outbox section of cfg.
func NewDispatcher(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	d := &Dispatcher{
		store:        store,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "outbox"),
		pollInterval: time.Duration(cfg.Outbox.PollInterval) * time.Second,
		batchSize:    cfg.Outbox.BatchSize,
		sendTimeout:  cfg.NotificationTimeout(),
		policy: queue.RetryPolicy{
			MaxAttempts: cfg.Outbox.MaxAttempts,
			BaseBackoff: time.Duration(cfg.Outbox.BaseBackoff) * time.Second,
			MaxBackoff:  time.Duration(cfg.Outbox.MaxBackoff) * time.Second,
		},
		now: time.Now,
	}
	if d.pollInterval <= 0 {
		d.pollInterval = 5 * time.Second
	}
	if d.batchSize <= 0 {
		d.batchSize = 25
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins draining the outbox in the background.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return errors.New("outbox dispatcher already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(runCtx)
	return nil
}

// Stop terminates the dispatcher and waits for the in-flight batch.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := d.RunOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			d.logger.Error("outbox drain failed",
				logging.Error(err),
				logging.Event("outbox_drain_failed"),
				logging.Hint("check pipeline database access"),
			)
		}
		// A full batch usually means more work is waiting.
		if err == nil && processed >= d.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.pollInterval):
		}
	}
}

// RunOnce claims one batch of due entries and attempts delivery. It returns
// the number of entries processed. Delivery failures are recorded on the
// entry and never returned; only store errors are.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now()
	entries, err := d.store.ClaimOutbox(ctx, now, d.batchSize)
	d.recordRun(now, err)
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := d.deliver(ctx, entry); err != nil {
			d.recordRun(now, err)
			return 0, err
		}
	}
	return len(entries), nil
}

func (d *Dispatcher) deliver(ctx context.Context, entry queue.OutboxEntry) error {
	logger := d.logger.With(
		logging.ItemID(entry.ItemID),
		logging.Action(entry.Action),
		logging.String("outbox_id", entry.ID),
	)

	sendCtx := ctx
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	sendErr := d.notifier.NotifyTransition(sendCtx, notifications.Event{
		ID:         entry.ID,
		ItemID:     entry.ItemID,
		OwnerID:    entry.OwnerID,
		Action:     entry.Action,
		ItemTitle:  entry.ItemTitle,
		OccurredAt: entry.CreatedAt,
	})
	if sendErr == nil {
		if err := d.store.MarkOutboxDelivered(ctx, entry.ID, d.now()); err != nil {
			return err
		}
		d.count(&d.delivered)
		logger.Info("owner notified", logging.Event("notification_delivered"))
		return nil
	}

	state, err := d.store.MarkOutboxFailed(ctx, entry.ID, sendErr, d.now(), d.policy)
	if err != nil {
		return err
	}
	if state == queue.OutboxDead {
		d.count(&d.dead)
		logger.Error("notification abandoned",
			logging.Error(sendErr),
			logging.Int("attempts", entry.Attempts+1),
			logging.Event("notification_dead"),
			logging.Hint("fix the transport then run 'atelier outbox retry'"),
			logging.Alert("notification_dead"),
		)
		return nil
	}
	d.count(&d.failed)
	logging.WarnWithContext(logger, "notification delivery failed; will retry", "notification_retry",
		logging.Error(sendErr),
		logging.Int("attempts", entry.Attempts+1),
		logging.Hint("check ntfy/kafka reachability"),
	)
	return nil
}

func (d *Dispatcher) count(counter *int) {
	d.mu.Lock()
	*counter++
	d.mu.Unlock()
}

func (d *Dispatcher) recordRun(at time.Time, err error) {
	d.mu.Lock()
	d.lastRun = at
	d.lastErr = err
	d.mu.Unlock()
}

// DispatcherStatus is a snapshot of dispatcher activity since start.
type DispatcherStatus struct {
	Running   bool
	LastRun   time.Time
	LastError string
	Delivered int
	Retried   int
	Dead      int
}

// Status returns the latest dispatcher information.
func (d *Dispatcher) Status() DispatcherStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	status := DispatcherStatus{
		Running:   d.running,
		LastRun:   d.lastRun,
		Delivered: d.delivered,
		Retried:   d.failed,
		Dead:      d.dead,
	}
	if d.lastErr != nil {
		status.LastError = d.lastErr.Error()
	}
	return status
}
