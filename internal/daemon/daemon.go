package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"atelier/internal/config"
	"atelier/internal/logging"
	"atelier/internal/notifications"
	"atelier/internal/preflight"
	"atelier/internal/queue"
	"atelier/internal/workflow"
)

// Daemon coordinates the outbox dispatcher and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *queue.Store
	engine     *workflow.Engine
	dispatcher *workflow.Dispatcher
	notifier   notifications.Service
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Option configures optional Daemon behavior.
type Option func(*daemonOptions)

type daemonOptions struct {
	notifier notifications.Service
	now      func() time.Time
}

// WithNotifier replaces the notification service built from configuration.
func WithNotifier(svc notifications.Service) Option {
	return func(o *daemonOptions) {
		o.notifier = svc
	}
}

// WithClock overrides the clock shared by the engine and dispatcher.
func WithClock(now func() time.Time) Option {
	return func(o *daemonOptions) {
		o.now = now
	}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	APIAddress   string
	Dispatcher   workflow.DispatcherStatus
	Database     queue.DatabaseHealth
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	options := daemonOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.notifier == nil {
		options.notifier = notifications.NewService(cfg)
	}

	var engineOpts []workflow.EngineOption
	var dispatcherOpts []workflow.DispatcherOption
	if options.now != nil {
		engineOpts = append(engineOpts, workflow.WithClock(options.now))
		dispatcherOpts = append(dispatcherOpts, workflow.WithDispatcherClock(options.now))
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		engine:     workflow.NewEngine(cfg, store, logger, engineOpts...),
		dispatcher: workflow.NewDispatcher(cfg, store, options.notifier, logger, dispatcherOpts...),
		notifier:   options.notifier,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, then launches the outbox dispatcher and the
// API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another atelier daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.reportPreflight(d.ctx)
	if err := d.dispatcher.Start(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start outbox dispatcher: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.dispatcher.Stop()
		d.abortStart()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("atelier daemon started",
		logging.Event("daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
	)
	return nil
}

func (d *Daemon) reportPreflight(ctx context.Context) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.Hint("notifications stay queued in the outbox until the check passes"),
		)
	}
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.dispatcher.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Hint("remove the lock file if no daemon is running"),
			logging.String("lock", d.lockPath),
			logging.Error(err),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("atelier daemon stopped", logging.Event("daemon_stopped"))
}

// Close stops the daemon and releases the store and notifier.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if err := notifications.Close(d.notifier); err != nil {
		errs = append(errs, fmt.Errorf("close notifier: %w", err))
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Engine exposes the transition engine the API serves.
func (d *Daemon) Engine() *workflow.Engine {
	return d.engine
}

// Handler returns the HTTP handler serving the daemon API.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// APIAddress returns the bound API address, or "" when the server is not
// listening.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// ListOutbox returns the newest outbox entries, optionally filtered by state.
func (d *Daemon) ListOutbox(ctx context.Context, limit uint64, states ...queue.OutboxState) ([]queue.OutboxEntry, error) {
	return d.store.ListOutbox(ctx, limit, states...)
}

// RetryOutbox requeues dead outbox entries; no ids requeues every dead entry.
func (d *Daemon) RetryOutbox(ctx context.Context, ids ...string) (int64, error) {
	count, err := d.store.RetryOutbox(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		d.logger.Info("outbox entries requeued",
			logging.Event("outbox_requeued"),
			logging.Int64("count", count),
		)
	}
	return count, nil
}

// TestNotification sends a test message through every configured transport.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	health, err := d.store.CheckHealth(ctx)
	if err != nil && health.Error == "" {
		health.Error = err.Error()
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
		Dispatcher:   d.dispatcher.Status(),
		Database:     health,
	}
}
