package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"atelier/internal/api"
	"atelier/internal/config"
	"atelier/internal/logging"
	"atelier/internal/queue"
)

const (
	maxRequestBody     = 1 << 20
	defaultOutboxLimit = 50
	correlationHeader  = "X-Correlation-ID"
	actorHeader        = "X-Actor-ID"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	router := mux.NewRouter()
	router.Use(correlationMiddleware)
	router.HandleFunc("/api/health", srv.handleHealth).Methods(http.MethodGet)

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware(cfg.Paths.APIToken))
	protected.HandleFunc("/status", srv.handleStatus).Methods(http.MethodGet)
	protected.HandleFunc("/stats", srv.handleStats).Methods(http.MethodGet)
	protected.HandleFunc("/actions", srv.handleActions).Methods(http.MethodGet)
	protected.HandleFunc("/queues/{queue}", srv.handleQueue).Methods(http.MethodGet)
	protected.HandleFunc("/items", srv.handleSubmit).Methods(http.MethodPost)
	protected.HandleFunc("/items/{id}", srv.handleItem).Methods(http.MethodGet)
	protected.HandleFunc("/items/{id}/history", srv.handleHistory).Methods(http.MethodGet)
	protected.HandleFunc("/items/{id}/actions", srv.handleApply).Methods(http.MethodPost)
	protected.HandleFunc("/items/{id}/published", srv.handlePublished).Methods(http.MethodPost)
	protected.HandleFunc("/outbox", srv.handleOutbox).Methods(http.MethodGet)
	protected.HandleFunc("/outbox/retry", srv.handleOutboxRetry).Methods(http.MethodPost)

	srv.handler = router
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error",
				logging.Event("api_server_failed"),
				logging.Error(err),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	listener := s.listener
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.daemon.store.CheckHealth(r.Context())
	payload := api.FromDatabaseHealth(health)
	if err != nil || !health.IntegrityCheck {
		s.writeJSON(w, http.StatusServiceUnavailable, payload)
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		APIAddress:   status.APIAddress,
		Dispatcher:   api.FromDispatcherStatus(status.Dispatcher),
		Database:     api.FromDatabaseHealth(status.Database),
	})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.daemon.engine.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromStats(stats))
}

func (s *apiServer) handleActions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromActions(queue.Actions()))
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["queue"]
	name, err := queue.ParseQueueName(raw)
	if err != nil {
		s.writeError(w, r, &queue.TransitionError{Kind: queue.KindValidation, Reason: err.Error()})
		return
	}
	entries, err := s.daemon.engine.ListQueue(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromQueueEntries(name, entries))
}

func (s *apiServer) handleItem(w http.ResponseWriter, r *http.Request) {
	detail, err := s.daemon.engine.Describe(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromItemDetail(detail))
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	history, err := s.daemon.engine.History(r.Context(), itemID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromHistory(itemID, history))
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body api.SubmitRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.daemon.engine.Submit(r.Context(), body.ToSubmission(r.Header.Get(actorHeader)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.ItemResponse{
		Item:    api.FromItem(item, s.daemon.engine.Now()),
		Actions: api.FromActions(queue.ActionsFor(item.Status)),
	})
}

func (s *apiServer) handleApply(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	var body api.ApplyActionRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := body.ToApplyRequest(itemID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.daemon.engine.Apply(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, itemResponse(item, s.daemon.engine.Now()))
}

func (s *apiServer) handlePublished(w http.ResponseWriter, r *http.Request) {
	var body api.PublishRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.daemon.engine.Publish(r.Context(), mux.Vars(r)["id"], body.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, itemResponse(item, s.daemon.engine.Now()))
}

func (s *apiServer) handleOutbox(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := uint64(defaultOutboxLimit)
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			s.writeError(w, r, &queue.TransitionError{Kind: queue.KindValidation, Reason: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	var states []queue.OutboxState
	for _, raw := range query["state"] {
		state, err := queue.ParseOutboxState(raw)
		if err != nil {
			s.writeError(w, r, &queue.TransitionError{Kind: queue.KindValidation, Reason: err.Error()})
			return
		}
		states = append(states, state)
	}
	entries, err := s.daemon.ListOutbox(r.Context(), limit, states...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromOutboxEntries(entries))
}

func (s *apiServer) handleOutboxRetry(w http.ResponseWriter, r *http.Request) {
	var body api.OutboxRetryRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	count, err := s.daemon.RetryOutbox(r.Context(), body.IDs...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.OutboxRetryResponse{Requeued: count})
}

func itemResponse(item *queue.Item, now time.Time) api.ItemResponse {
	resp := api.ItemResponse{Item: api.FromItem(item, now)}
	if item != nil {
		resp.Actions = api.FromActions(queue.ActionsFor(item.Status))
	}
	return resp
}

// decodeBody reads a JSON request body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &queue.TransitionError{Kind: queue.KindValidation, Reason: "invalid JSON body: " + err.Error()}
	}
	return nil
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := api.ErrorFor(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("api request failed",
			logging.Event("api_request_failed"),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, payload)
}

// correlationMiddleware tags every request with a correlation id, reusing the
// caller's X-Correlation-ID when present.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(correlationHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
	})
}
