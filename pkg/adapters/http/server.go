// Package http exposes remotely hosted sessions over HTTP.
//
// The server owns session state; the client owns the clock. Every response
// carries the side effects the client must perform (draw frames, arm the
// single timer) and the client reports timer expiries and inputs back as
// events stamped with their capture time. Result submission stays on the
// server.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/mrt"
	"github.com/aretw0/mrt/internal/logging"
	"github.com/aretw0/mrt/internal/runtime"
	"github.com/aretw0/mrt/pkg/adapters/memory"
	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/dispatch"
	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/observability"
	"github.com/aretw0/mrt/pkg/ports"
	"github.com/aretw0/mrt/pkg/runner"
	"github.com/aretw0/mrt/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrMissingIdentity is returned when a plan is requested without pid or code.
var ErrMissingIdentity = errors.New("participant id or session code required")

// Server hosts sessions for remote clients.
type Server struct {
	base       config.Config
	store      ports.StateStore
	locker     ports.DistributedLocker
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	agg        *observability.Aggregator
	engineOpts []mrt.Option
	metrics    http.Handler
	logger     *slog.Logger
	clock      func() time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithStore sets where session snapshots live. Defaults to memory.
func WithStore(store ports.StateStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLocker enables cross-replica session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Server) {
		s.locker = locker
	}
}

// WithDispatcher sets the dispatcher results are submitted through.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(s *Server) {
		s.dispatcher = d
	}
}

// WithAggregator shares a snapshot aggregator with other components.
func WithAggregator(agg *observability.Aggregator) Option {
	return func(s *Server) {
		s.agg = agg
	}
}

// WithEngineOptions forwards options (hooks, logger) to every session engine.
func WithEngineOptions(opts ...mrt.Option) Option {
	return func(s *Server) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock stamps events that arrive without a capture time.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.clock = now
	}
}

// NewServer creates a server whose sessions start from base.
func NewServer(base config.Config, opts ...Option) (*Server, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &Server{
		base:   base,
		logger: logging.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}
	if s.dispatcher == nil {
		s.dispatcher = dispatch.New(nil, dispatch.WithLogger(s.logger))
	}
	if s.agg == nil {
		s.agg = observability.NewAggregator()
	}
	var smOpts []session.Option
	if s.locker != nil {
		smOpts = append(smOpts, session.WithLocker(s.locker))
	}
	s.sessions = session.NewManager(s.store, append(smOpts, session.WithLogger(s.logger))...)
	return s, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/config", s.getConfig)
	r.Get("/plan", s.getPlan)
	r.Get("/events", s.subscribeEvents)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/events", s.postEvent)
			r.Get("/results", s.getResults)
		})
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

// Shutdown waits for in-flight result submissions.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.dispatcher.Wait(ctx)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// engine builds the sequencer for a session from its stored overrides.
// Client metadata comes from the request carrying the event.
func (s *Server) engine(overrides map[string]any, r *http.Request) (*mrt.Engine, error) {
	cfg, err := config.Apply(s.base, overrides)
	if err != nil {
		return nil, err
	}
	opts := append([]mrt.Option{
		mrt.WithLogger(s.logger),
		mrt.WithClock(s.clock),
		mrt.WithClientMetadata(clientMetadata(r)),
	}, s.engineOpts...)
	return mrt.New(cfg, opts...)
}

func clientMetadata(r *http.Request) map[string]string {
	meta := map[string]string{"host": r.Host}
	if ua := r.UserAgent(); ua != "" {
		meta["user_agent"] = ua
	}
	return meta
}

// perform hands submit actions to the dispatcher and returns the rest for the client.
func (s *Server) perform(ctx context.Context, actions []domain.ActionRequest) []domain.ActionRequest {
	out := make([]domain.ActionRequest, 0, len(actions))
	for _, act := range actions {
		if act.Type == domain.ActionSubmit {
			if env, ok := act.Payload.(domain.Envelope); ok {
				s.dispatcher.Submit(ctx, env)
			}
			continue
		}
		out = append(out, act)
	}
	return out
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "mrt-http",
		"version": strings.TrimSpace(mrt.Version),
		"schema":  s.base.SchemaVersion(),
	}, s.logger)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.base, s.logger)
}

// httpStatus maps domain errors to status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionComplete):
		return http.StatusGone
	case errors.Is(err, ErrMissingIdentity),
		errors.Is(err, config.ErrInvalidOverride),
		errors.Is(err, runtime.ErrNoTrials),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "err", err)
	} else {
		s.logger.Debug(msg, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf("%s: %v", msg, err)}, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
