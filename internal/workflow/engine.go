package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/config"
	"atelier/internal/logging"
	"atelier/internal/queue"
)

// Engine applies operator actions and serves pipeline reads.
type Engine struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	now    func() time.Time
}

// EngineOption configures optional Engine behavior.
type EngineOption func(*Engine)

// WithClock overrides the wall clock used for priorities and stats.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs an Engine over store.
func NewEngine(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...EngineOption) *Engine {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	e := &Engine{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "executor"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// ApplyRequest is an operator's request to move one item.
type ApplyRequest struct {
	ItemID  string
	Action  string
	ActorID string
	Notes   string
	// Expected is the status the operator saw when choosing the action.
	Expected queue.Status
}

// Apply resolves the action and moves the item. On a conflict the caller
// should re-read the item and decide again; the returned error satisfies
// errors.Is(err, queue.ErrConcurrentModification).
func (e *Engine) Apply(ctx context.Context, req ApplyRequest) (*queue.Item, error) {
	ctx = logging.WithItemID(ctx, req.ItemID)
	ctx = logging.WithActorID(ctx, req.ActorID)

	action, err := queue.ParseAction(req.Action)
	if err != nil {
		var transitionErr *queue.TransitionError
		if errors.As(err, &transitionErr) {
			transitionErr.ItemID = req.ItemID
		}
		e.logRefused(ctx, req, err)
		return nil, err
	}

	updated, err := e.store.ApplyTransition(ctx, queue.TransitionRequest{
		ItemID:   req.ItemID,
		Action:   action,
		ActorID:  req.ActorID,
		Notes:    strings.TrimSpace(req.Notes),
		Expected: req.Expected,
		Notify:   e.shouldNotify(action),
	})
	if err != nil {
		e.logRefused(ctx, req, err)
		return nil, err
	}

	logging.WithContext(ctx, e.logger).Info("transition applied",
		logging.Action(action.Token),
		logging.Transition(req.Expected, updated.Status),
		logging.Event("transition_applied"),
	)
	return updated, nil
}

// Publish records that the downstream marketplace listing went live.
func (e *Engine) Publish(ctx context.Context, itemID, notes string) (*queue.Item, error) {
	ctx = logging.WithItemID(ctx, itemID)
	ctx = logging.WithActorID(ctx, queue.MarketplaceActor)
	updated, err := e.store.MarkPublished(ctx, itemID, strings.TrimSpace(notes), e.cfg.Notifications.NotifyPublished)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "publish refused", "publish_refused",
			logging.Action(queue.ActionPublish),
			logging.String("reason", queue.ErrorKindOf(err)),
			logging.Error(err),
			logging.Hint("item must be in marketplace prep before the listing can go live"),
		)
		return nil, err
	}
	logging.WithContext(ctx, e.logger).Info("item published",
		logging.Action(queue.ActionPublish),
		logging.Event("item_published"),
	)
	return updated, nil
}

// Submit hands a new item from the intake flow to the store.
func (e *Engine) Submit(ctx context.Context, sub queue.Submission) (*queue.Item, error) {
	item, err := e.store.Submit(ctx, sub)
	if err != nil {
		return nil, err
	}
	logging.WithContext(logging.WithItemID(ctx, item.ID), e.logger).Info("item submitted",
		logging.String("owner_id", item.OwnerID),
		logging.Event("item_submitted"),
	)
	return item, nil
}

func (e *Engine) shouldNotify(action queue.Action) bool {
	if !action.NotifiesOwner {
		return false
	}
	switch action.Token {
	case queue.ActionReject:
		return e.cfg.Notifications.NotifyReject
	case queue.ActionCreateListing:
		return e.cfg.Notifications.NotifyListing
	default:
		return true
	}
}

func (e *Engine) logRefused(ctx context.Context, req ApplyRequest, err error) {
	kind := queue.ErrorKindOf(err)
	logger := logging.WithContext(ctx, e.logger)
	attrs := []logging.Attr{
		logging.Action(req.Action),
		logging.String("reason", kind),
		logging.Error(err),
	}
	switch kind {
	case queue.KindConflict:
		// Routine under multiple operators; the caller re-reads and retries.
		logger.Info("transition lost race", logging.Args(attrs...)...)
	case queue.KindUnknownAction, queue.KindNotFound, queue.KindTerminal, queue.KindValidation:
		logging.WarnWithContext(logger, "transition refused", "transition_refused",
			append(attrs, logging.Hint(refusalHint(kind)))...)
	default:
		logger.Error("transition failed", logging.Args(append(attrs,
			logging.Event("transition_failed"),
			logging.Hint("check pipeline database access"),
		)...)...)
	}
}

func refusalHint(kind string) string {
	switch kind {
	case queue.KindUnknownAction:
		return "use one of the documented action names"
	case queue.KindNotFound:
		return "verify the item id"
	case queue.KindTerminal:
		return "item is already published or rejected"
	default:
		return "check request fields"
	}
}

// QueueEntry is an item annotated for operator triage.
type QueueEntry struct {
	Item     *queue.Item
	Queue    queue.QueueName
	Priority queue.Priority
	Age      time.Duration
}

// ListQueue returns the items in the named queue, oldest first, annotated
// with their current priority.
func (e *Engine) ListQueue(ctx context.Context, name queue.QueueName) ([]QueueEntry, error) {
	items, err := e.store.ListQueue(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list %s queue: %w", name, err)
	}
	now := e.now()
	entries := make([]QueueEntry, 0, len(items))
	for _, item := range items {
		entry := QueueEntry{
			Item:     item,
			Priority: queue.EstimatePriority(item, now),
			Age:      item.Age(now),
		}
		if queues := queue.Classify(item); len(queues) > 0 {
			entry.Queue = queues[0]
		}
		entries = append(entries, entry)
	}
	e.logger.Debug("queue listed", logging.Queue(string(name)), logging.Int("items", len(entries)))
	return entries, nil
}

// Stats computes the pipeline summary from the current item set.
func (e *Engine) Stats(ctx context.Context) (queue.Stats, error) {
	items, err := e.store.List(ctx, queue.ListOptions{})
	if err != nil {
		return queue.Stats{}, fmt.Errorf("load items for stats: %w", err)
	}
	return queue.ComputeStats(items, e.now(), queue.StatsOptions{
		Location:   e.cfg.Location(),
		WaitWindow: e.cfg.WaitWindow(),
	}), nil
}

// ItemDetail is a single item with its derived triage fields.
type ItemDetail struct {
	Item     *queue.Item
	Queue    queue.QueueName
	Priority queue.Priority
	Age      time.Duration
	// Actions lists the operator actions the item currently accepts.
	Actions []queue.Action
}

// Describe returns an item with its derived fields.
func (e *Engine) Describe(ctx context.Context, itemID string) (*ItemDetail, error) {
	item, err := e.store.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &queue.TransitionError{Kind: queue.KindNotFound, ItemID: itemID}
	}
	now := e.now()
	detail := &ItemDetail{
		Item:     item,
		Priority: queue.EstimatePriority(item, now),
		Age:      item.Age(now),
	}
	if queues := queue.Classify(item); len(queues) > 0 {
		detail.Queue = queues[0]
	}
	detail.Actions = queue.ActionsFor(item.Status)
	return detail, nil
}

// History is an item's review trail and matching audit entries.
type History struct {
	Reviews []queue.ReviewRecord
	Audit   []queue.AuditEntry
}

// History returns the review records and audit entries for one item.
func (e *Engine) History(ctx context.Context, itemID string) (History, error) {
	item, err := e.store.GetByID(ctx, itemID)
	if err != nil {
		return History{}, err
	}
	if item == nil {
		return History{}, &queue.TransitionError{Kind: queue.KindNotFound, ItemID: itemID}
	}
	reviews, err := e.store.ListReviewRecords(ctx, itemID)
	if err != nil {
		return History{}, err
	}
	audit, err := e.store.ListAuditEntries(ctx, queue.AuditFilter{EntityID: itemID})
	if err != nil {
		return History{}, err
	}
	return History{Reviews: reviews, Audit: audit}, nil
}
