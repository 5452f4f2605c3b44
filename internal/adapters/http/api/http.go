// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/badgeboard/internal/app"
	"github.com/okian/badgeboard/internal/domain/dedupe"
	"github.com/okian/badgeboard/internal/domain/types"
	"github.com/okian/badgeboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	LeaderboardDependencies
	BadgeDependencies
	ProfileDependencies
	TimelineDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the badge API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	badgesHandler      *BadgesHandler
	profilesHandler    *ProfilesHandler
	timelineHandler    *TimelineHandler
	logger             logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.deduper == nil {
		cfg.deduper = dedupe.NewInMemoryDeduper(dedupe.WithClock(cfg.now))
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider, cfg.deduper),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
		badgesHandler:      NewBadgesHandler(deps, cfg),
		profilesHandler:    NewProfilesHandler(deps),
		timelineHandler:    NewTimelineHandler(deps),
		logger:             cfg.logger,
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", MetricsMiddleware(s.healthHandler.HandleLiveness, "health"))
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	r.Get("/periods", MetricsMiddleware(s.leaderboardHandler.HandleGetPeriods, "periods"))

	r.Get("/badges", MetricsMiddleware(s.badgesHandler.HandleListBadges, "badges"))
	r.Post("/badges", MetricsMiddleware(s.badgesHandler.HandlePostBadge, "badges"))
	r.Get("/badges/options", MetricsMiddleware(s.badgesHandler.HandleOptions, "badge_options"))

	r.Get("/trainers", MetricsMiddleware(s.profilesHandler.HandleListTrainers, "trainers"))
	r.Get("/trainers/{name}", MetricsMiddleware(s.profilesHandler.HandleGetTrainer, "trainer"))
	r.Get("/decks", MetricsMiddleware(s.profilesHandler.HandleListDecks, "decks"))
	r.Get("/decks/{id}", MetricsMiddleware(s.profilesHandler.HandleGetDeck, "deck"))

	r.Get("/timeline", MetricsMiddleware(s.timelineHandler.HandleGetTimeline, "timeline"))
	r.Get("/timeline/chart.png", MetricsMiddleware(s.timelineHandler.HandleGetChart, "timeline_chart"))
}

// Handler returns a router with every route and the shared middleware.
// Callers may mount further routes on it.
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recoverer(s.logger))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	s.Register(r)
	return r
}

// Option configures the Server.
type Option func(*options)

type options struct {
	adminToken  string
	ratePerMin  int
	burst       int
	maxLimit    int
	now         func() time.Time
	logger      logger.Logger
	maxBodySize int64
	deduper     dedupe.Deduper
}

func defaultOptions() options {
	return options{
		ratePerMin:  30,
		burst:       5,
		maxLimit:    500,
		now:         time.Now,
		logger:      logger.Nop(),
		maxBodySize: 64 << 10,
	}
}

// WithDeduper sets the idempotency key tracker for POST /badges. The
// default keeps keys in memory for a day.
func WithDeduper(d dedupe.Deduper) Option {
	return func(o *options) {
		if d != nil {
			o.deduper = d
		}
	}
}

// WithAdminToken sets the bearer token accepted by POST /badges. An empty
// token disables writes over HTTP.
func WithAdminToken(token string) Option {
	return func(o *options) { o.adminToken = token }
}

// WithAppendRate bounds POST /badges to perMinute requests with the given
// burst. A non-positive rate removes the bound.
func WithAppendRate(perMinute, burst int) Option {
	return func(o *options) {
		o.ratePerMin = perMinute
		if burst > 0 {
			o.burst = burst
		}
	}
}

// WithMaxLimit caps the leaderboard limit parameter.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithClock sets the reference time for relative badge dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrInvalidBadge):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrReadOnly):
		writeError(w, http.StatusForbidden, "read_only", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
