package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/badgeboard/internal/domain/period"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/timeseries"
)

// TimelineQuery selects a timeline. Season and Start/End combine: the
// tighter bound wins on each side.
type TimelineQuery struct {
	GroupBy ranking.GroupBy // trainer or deck
	Season  int
	Start   time.Time
	End     time.Time
	Field   timeseries.Field
	// Images overrides the configured image map when non-nil.
	Images timeseries.ImageMap
}

// Timeline is a replayed ranking in both long and wide form.
type Timeline struct {
	GroupBy ranking.GroupBy
	Window  period.Window
	Rows    []timeseries.Row
	Table   timeseries.Table
	Images  map[string]string
}

// timelineKey maps a grouping to the entity used in timelines. Decks are
// named by their display name.
func timelineKey(g ranking.GroupBy) (ranking.KeyFunc, error) {
	switch g {
	case ranking.GroupByTrainer, "":
		return ranking.ByTrainer, nil
	case ranking.GroupByDeck, ranking.GroupByDeckName:
		return ranking.ByDeckName, nil
	default:
		return nil, fmt.Errorf("%w: timeline group-by must be trainer or deck, got %q", ErrInvalidArgument, g)
	}
}

// TimelineWindow resolves the date filter of q.
func TimelineWindow(q TimelineQuery) (period.Window, error) {
	w := period.Window{Start: q.Start, End: q.End}
	if q.Season > 0 {
		w = period.SeasonBounds(q.Season).Intersect(w)
	}
	if w.Empty() {
		return period.Window{}, fmt.Errorf("%w: start must be before end", ErrInvalidArgument)
	}
	return w, nil
}

// Timeline replays the badges of the window date by date.
func (s *Service) Timeline(ctx context.Context, q TimelineQuery) (Timeline, error) {
	start := time.Now()
	defer observe("timeline", start)

	key, err := timelineKey(q.GroupBy)
	if err != nil {
		return Timeline{}, err
	}
	field := q.Field
	if field == "" {
		field = timeseries.FieldScore
	}
	if _, err := timeseries.ParseField(string(field)); err != nil {
		return Timeline{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	w, err := TimelineWindow(q)
	if err != nil {
		return Timeline{}, err
	}

	all, err := s.readAll(ctx)
	if err != nil {
		return Timeline{}, err
	}
	badges := period.Filter(all, w)

	rows := timeseries.BuildTimeline(badges, key, s.scorer)
	table := timeseries.PivotCumulative(rows, field)

	images := s.images
	if q.Images != nil {
		images = q.Images
	}
	isDeck := q.GroupBy == ranking.GroupByDeck || q.GroupBy == ranking.GroupByDeckName
	resolver := timeseries.NewImageResolver(
		timeseries.WithImageMap(images),
		timeseries.WithIconResolver(s.icons),
		timeseries.WithDeckIcons(isDeck),
	)
	table.Images = resolver.Images(badges, key, table.Entities)

	out := Timeline{
		GroupBy: q.GroupBy,
		Window:  w,
		Rows:    rows,
		Table:   table,
	}
	if table.Images != nil {
		out.Images = make(map[string]string, len(table.Entities))
		for i, e := range table.Entities {
			if table.Images[i] != "" {
				out.Images[e] = table.Images[i]
			}
		}
	}
	return out, nil
}
