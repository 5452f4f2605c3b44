package exporter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/okian/badgeboard/internal/adapters/export"
	"github.com/okian/badgeboard/internal/adapters/repository"
	service "github.com/okian/badgeboard/internal/app"
	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/period"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/scoring"
	"github.com/okian/badgeboard/internal/domain/timeseries"
	"github.com/okian/badgeboard/pkg/logger"
	"github.com/okian/badgeboard/pkg/metrics"
)

const outputFileMode = 0o644

// plan is a validated Config.
type plan struct {
	query  service.TimelineQuery
	format export.Format
	images timeseries.ImageMap
}

// prepare validates every argument and loads the image map. Nothing is
// read from the record log yet.
func prepare(cfg Config) (plan, error) {
	var p plan
	if strings.TrimSpace(cfg.Output) == "" {
		return p, fmt.Errorf("%w: missing output path", ErrUsage)
	}

	g, err := ranking.ParseGroupBy(cfg.GroupBy)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	switch g {
	case ranking.GroupByTrainer, ranking.GroupByDeck, ranking.GroupByDeckName:
	default:
		return p, fmt.Errorf("%w: --group-by must be trainer or deck, got %q", ErrUsage, cfg.GroupBy)
	}
	p.query.GroupBy = g

	if cfg.Season < 0 {
		return p, fmt.Errorf("%w: invalid season %d", ErrUsage, cfg.Season)
	}
	p.query.Season = cfg.Season
	if cfg.StartDate != "" {
		if p.query.Start, err = model.ParseDate(cfg.StartDate); err != nil {
			return p, fmt.Errorf("%w: --start-date: %w", ErrUsage, err)
		}
	}
	if cfg.EndDate != "" {
		if p.query.End, err = model.ParseDate(cfg.EndDate); err != nil {
			return p, fmt.Errorf("%w: --end-date: %w", ErrUsage, err)
		}
	}
	if _, err := service.TimelineWindow(p.query); err != nil {
		return p, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if p.query.Field, err = timeseries.ParseField(cfg.Value); err != nil {
		return p, fmt.Errorf("%w: --value: %w", ErrUsage, err)
	}

	p.format = export.FormatFromPath(cfg.Output)
	if cfg.Format != "" {
		if p.format, err = export.ParseFormat(cfg.Format); err != nil {
			return p, fmt.Errorf("%w: --format: %w", ErrUsage, err)
		}
	}
	if p.format == export.FormatJSON {
		return p, fmt.Errorf("%w: --format must be csv or xlsx", ErrUsage)
	}

	if cfg.ImageMap != "" {
		if p.images, err = timeseries.LoadImageMap(cfg.ImageMap); err != nil {
			return p, fmt.Errorf("%w: --image-map: %w", ErrUsage, err)
		}
	}
	return p, nil
}

// Run replays the record log and writes the timeline, plus a chart when
// cfg.Chart is set.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Stats, error) {
	start := time.Now()
	if log == nil {
		log = logger.Nop()
	}
	p, err := prepare(cfg)
	if err != nil {
		return Stats{}, err
	}

	svc := service.New(
		repository.NewFileStore(cfg.Input, repository.WithLogger(log.Named("store"))),
		service.WithLogger(log.Named("service")),
		service.WithScorer(scoring.NewTierScorer(scoring.WithTierWeights(cfg.TierWeights))),
		service.WithIconResolver(timeseries.TemplateIconResolver{Template: cfg.IconURLTemplate}),
		service.WithImageMap(p.images),
	)

	log.Info(ctx, "exporting timeline",
		logger.String("input", cfg.Input),
		logger.String("output", cfg.Output),
		logger.String("group_by", string(p.query.GroupBy)),
		logger.Bool("cumulative", cfg.Cumulative),
	)
	tl, err := svc.Timeline(ctx, p.query)
	if err != nil {
		return Stats{}, fmt.Errorf("build timeline: %w", err)
	}

	sheet := export.LongSheet(tl.Rows, tl.Images)
	if cfg.Cumulative {
		sheet = export.WideSheet(tl.Table)
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, p.format, sheet); err != nil {
		return Stats{}, err
	}
	if err := os.WriteFile(cfg.Output, buf.Bytes(), outputFileMode); err != nil {
		return Stats{}, fmt.Errorf("%w: %w", export.ErrWrite, err)
	}
	metrics.RecordExport(string(p.format), len(sheet.Rows))

	if cfg.Chart != "" {
		buf.Reset()
		title := fmt.Sprintf("Badge %s by %s", tl.Table.Field, p.query.GroupBy)
		if err := export.RenderChart(&buf, tl.Table, title); err != nil {
			return Stats{}, err
		}
		if err := os.WriteFile(cfg.Chart, buf.Bytes(), outputFileMode); err != nil {
			return Stats{}, fmt.Errorf("%w: %w", export.ErrWrite, err)
		}
		metrics.RecordExport("png", len(tl.Table.Rows))
	}

	return Stats{
		Input:    cfg.Input,
		Output:   cfg.Output,
		Chart:    cfg.Chart,
		Format:   string(p.format),
		Badges:   totalBadges(tl.Rows),
		Rows:     len(sheet.Rows),
		Entities: len(tl.Table.Entities),
		Dates:    len(tl.Table.Rows),
		Window:   describeWindow(tl.Window),
		Duration: time.Since(start),
	}, nil
}

// totalBadges sums the cumulative counts of the last replayed date, which
// lists every entity seen so far.
func totalBadges(rows []timeseries.Row) int {
	if len(rows) == 0 {
		return 0
	}
	last := rows[len(rows)-1].Date
	total := 0
	for i := len(rows) - 1; i >= 0 && rows[i].Date.Equal(last); i-- {
		total += rows[i].Badges
	}
	return total
}

func describeWindow(w period.Window) string {
	if w.Unbounded() {
		return period.AllTimeLabel
	}
	from, to := "start", "now"
	if !w.Start.IsZero() {
		from = w.Start.Format(model.DateLayout)
	}
	if !w.End.IsZero() {
		to = w.End.Format(model.DateLayout)
	}
	return from + " to " + to
}
