package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/period"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/summary"
	"github.com/okian/badgeboard/internal/domain/types"
)

// Query selects a leaderboard.
type Query struct {
	GroupBy ranking.GroupBy
	Kind    period.Kind
	// Anchor picks the window of Kind containing it; zero means today.
	Anchor time.Time
	// Season selects a season by ending year and wins over Anchor.
	Season int
	// Limit caps the entries returned; 0 means the configured maximum.
	Limit int
}

// secondaryFor pairs a grouping with the entity broken down under it.
func secondaryFor(g ranking.GroupBy) (ranking.KeyFunc, ranking.KeyFunc) {
	switch g {
	case ranking.GroupByDeck, ranking.GroupByDeckName:
		return ranking.ByTrainer, ranking.ByTrainer
	default:
		return ranking.ByDeckName, ranking.ByDeck
	}
}

// window resolves the query window.
func (s *Service) window(q Query) (period.Kind, period.Window, error) {
	kind := q.Kind
	if kind == "" {
		kind = period.KindAll
	}
	if q.Season > 0 {
		return period.KindSeason, period.SeasonBounds(q.Season), nil
	}
	anchor := q.Anchor
	if anchor.IsZero() {
		anchor = s.now()
	}
	w, err := period.Resolve(kind, anchor)
	if err != nil {
		return "", period.Window{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return kind, w, nil
}

// Leaderboard ranks the badges of one window.
func (s *Service) Leaderboard(ctx context.Context, q Query) (types.Leaderboard, error) {
	start := time.Now()
	defer observe("leaderboard", start)

	if q.GroupBy == "" {
		q.GroupBy = ranking.GroupByTrainer
	}
	key, err := ranking.KeyFor(q.GroupBy)
	if err != nil {
		return types.Leaderboard{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if q.Limit < 0 {
		return types.Leaderboard{}, fmt.Errorf("%w: negative limit", ErrInvalidArgument)
	}
	kind, w, err := s.window(q)
	if err != nil {
		return types.Leaderboard{}, err
	}

	all, err := s.readAll(ctx)
	if err != nil {
		return types.Leaderboard{}, err
	}
	badges := period.Filter(all, w)

	ranked := ranking.Rank(badges, key, s.scorer)
	breakdownKey, uniqueKey := secondaryFor(q.GroupBy)
	breakdown := summary.DetailBreakdown(badges, key, breakdownKey)
	labels := s.entityLabels(badges, q.GroupBy, key)

	limit := s.maxLimit
	if q.Limit > 0 && q.Limit < limit {
		limit = q.Limit
	}
	entries := make([]types.Entry, 0, min(limit, len(ranked)))
	for i, r := range ranked {
		if i >= limit {
			break
		}
		label := labels[r.Key]
		if label == "" {
			label = r.Key
		}
		entries = append(entries, types.Entry{
			Rank:      r.Rank,
			Key:       r.Key,
			Label:     label,
			Count:     r.Count,
			Points:    r.Points,
			Breakdown: breakdown.Secondaries(r.Key),
		})
	}

	return types.Leaderboard{
		GroupBy: string(q.GroupBy),
		Period:  periodView(kind, w, len(badges)),
		Total:   len(ranked),
		Entries: entries,
		Awards:  summary.Awards(badges, ranked, key, uniqueKey),
	}, nil
}

// entityLabels maps deck ids to the name on their newest badge. Other
// groupings display the key itself.
func (s *Service) entityLabels(badges []model.Badge, g ranking.GroupBy, key ranking.KeyFunc) map[string]string {
	if g != ranking.GroupByDeck {
		return nil
	}
	out := make(map[string]string)
	for _, b := range badges {
		k := key(b)
		if _, ok := out[k]; ok || k == "" {
			continue
		}
		out[k] = b.DeckName()
	}
	return out
}

// Periods lists the windows of kind that hold badges, newest first.
func (s *Service) Periods(ctx context.Context, kind period.Kind) ([]types.PeriodView, error) {
	badges, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	periods, err := period.Available(badges, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	out := make([]types.PeriodView, len(periods))
	for i, p := range periods {
		out[i] = periodView(p.Kind, p.Window, p.Count)
		out[i].Key = p.Key
	}
	return out, nil
}

func periodView(kind period.Kind, w period.Window, count int) types.PeriodView {
	v := types.PeriodView{
		Kind:  string(kind),
		Key:   string(period.KindAll),
		Label: period.Label(kind, w),
		Count: count,
	}
	if !w.Start.IsZero() {
		v.Start = w.Start.Format(model.DateLayout)
		v.Key = v.Start
	}
	if !w.End.IsZero() {
		v.End = w.End.Format(model.DateLayout)
	}
	return v
}
