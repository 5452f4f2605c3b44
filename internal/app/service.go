// Package service computes the leaderboard view models from the badge log.
// Every call reads the full log; nothing is cached.
package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/badgeboard/internal/adapters/repository"
	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/scoring"
	"github.com/okian/badgeboard/internal/domain/timeseries"
	"github.com/okian/badgeboard/pkg/logger"
	"github.com/okian/badgeboard/pkg/metrics"
)

const defaultMaxLimit = 500

// Service implements the API dependencies for the badge leaderboard.
type Service struct {
	store  repository.Store
	scorer scoring.Scorer
	icons  timeseries.IconResolver
	labels LabelFormatter
	images timeseries.ImageMap
	demo   bool
	now    func() time.Time
	logger logger.Logger

	maxLimit int
	started  time.Time

	reads       atomic.Int64
	appends     atomic.Int64
	lastRecords atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScorer sets the tier scorer.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithIconResolver sets how deck icon ids become URLs.
func WithIconResolver(icons timeseries.IconResolver) Option {
	return func(s *Service) {
		if icons != nil {
			s.icons = icons
		}
	}
}

// WithLabelFormatter sets how decks are rendered.
func WithLabelFormatter(f LabelFormatter) Option {
	return func(s *Service) {
		if f != nil {
			s.labels = f
		}
	}
}

// WithImageMap sets explicit timeline images.
func WithImageMap(images timeseries.ImageMap) Option {
	return func(s *Service) { s.images = images }
}

// WithDemo marks the log as read-only example data.
func WithDemo(demo bool) Option {
	return func(s *Service) { s.demo = demo }
}

// WithClock overrides the time source used for the current period.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxLimit caps the number of leaderboard entries returned.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		scorer:   scoring.Default(),
		now:      time.Now,
		logger:   logger.Nop(),
		maxLimit: defaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.labels == nil {
		s.labels = HTMLLabelFormatter{Icons: s.icons}
	}
	s.started = s.now()
	return s
}

// Demo reports whether the service serves read-only example data.
func (s *Service) Demo() bool { return s.demo }

// readAll loads the log and updates read statistics.
func (s *Service) readAll(ctx context.Context) ([]model.Badge, error) {
	badges, err := s.store.ReadAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "read badge log failed", logger.String("path", s.store.Path()), logger.Error(err))
		return nil, err
	}
	s.reads.Add(1)
	s.lastRecords.Store(int64(len(badges)))
	return badges, nil
}

// observe records how long a view took to compute.
func observe(view string, start time.Time) {
	metrics.RecordComputeLatency(view, float64(time.Since(start).Microseconds())/1000)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"store":         s.store.Path(),
		"demo":          s.demo,
		"reads":         s.reads.Load(),
		"appends":       s.appends.Load(),
		"records":       s.lastRecords.Load(),
		"uptimeSeconds": int64(s.now().Sub(s.started).Seconds()),
	}
	if w, ok := s.scorer.(interface{ Weights() map[string]int }); ok {
		stats["tierWeights"] = w.Weights()
	}
	return stats
}
