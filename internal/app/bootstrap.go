package service

import (
	"github.com/okian/badgeboard/internal/adapters/repository"
	"github.com/okian/badgeboard/internal/config"
	"github.com/okian/badgeboard/internal/domain/scoring"
	"github.com/okian/badgeboard/internal/domain/timeseries"
	"github.com/okian/badgeboard/pkg/logger"
)

// NewFromConfig builds a Service backed by the record log named in cfg.
// When no data file is configured the bundled example is served read-only.
func NewFromConfig(cfg *config.Config, l logger.Logger, opts ...Option) (*Service, error) {
	if l == nil {
		l = logger.Nop()
	}
	var images timeseries.ImageMap
	if cfg.ImageMapFile != "" {
		m, err := timeseries.LoadImageMap(cfg.ImageMapFile)
		if err != nil {
			return nil, err
		}
		images = m
	}

	store := repository.NewFileStore(cfg.DataPath(), repository.WithLogger(l.Named("store")))
	base := []Option{
		WithLogger(l.Named("service")),
		WithScorer(scoring.NewTierScorer(scoring.WithTierWeights(cfg.TierWeights))),
		WithIconResolver(timeseries.TemplateIconResolver{Template: cfg.IconURLTemplate}),
		WithImageMap(images),
		WithDemo(cfg.Demo()),
		WithMaxLimit(cfg.MaxLeaderboardLimit),
	}
	return New(store, append(base, opts...)...), nil
}
