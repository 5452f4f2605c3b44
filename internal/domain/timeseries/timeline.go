// Package timeseries replays badges date by date into cumulative rankings
// suitable for charting.
package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/scoring"
)

// ScorePointWeight scales points inside Score. Score orders like the
// (badges, points) tuple only while a point total stays below 1/weight.
const ScorePointWeight = 0.001

// ErrUnknownField is returned for an unsupported pivot value.
var ErrUnknownField = errors.New("unknown timeline field")

// Row is one entity's cumulative standing as of one date.
type Row struct {
	Date    time.Time `json:"date"`
	Entity  string    `json:"entity"`
	Badges  int       `json:"badges"`
	Points  int       `json:"points"`
	Score   float64   `json:"score"`
	Rank    int       `json:"rank"`
	Updated bool      `json:"updated"`
}

// Score combines badges and points into one sortable number.
func Score(badges, points int) float64 {
	return float64(badges) + float64(points)*ScorePointWeight
}

// BuildTimeline accumulates counts and points per entity across every
// distinct badge date and emits the full ranking as of each date. Undated
// badges and badges with an empty key are ignored.
func BuildTimeline(badges []model.Badge, key ranking.KeyFunc, scorer scoring.Scorer) []Row {
	if scorer == nil {
		scorer = scoring.Default()
	}

	type keyed struct {
		date time.Time
		key  string
		b    model.Badge
	}
	items := make([]keyed, 0, len(badges))
	for _, b := range badges {
		k := key(b)
		if !b.HasDate() || k == "" {
			continue
		}
		items = append(items, keyed{date: b.Date, key: k, b: b})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].date.Equal(items[j].date) {
			return items[i].date.Before(items[j].date)
		}
		return items[i].key < items[j].key
	})

	rows := make([]Row, 0)
	totals := make(map[string]*ranking.Entry)
	for i := 0; i < len(items); {
		day := items[i].date
		updated := make(map[string]bool)
		for ; i < len(items) && items[i].date.Equal(day); i++ {
			it := items[i]
			e, ok := totals[it.key]
			if !ok {
				e = &ranking.Entry{Key: it.key}
				totals[it.key] = e
			}
			e.Count++
			e.Points += scorer.Points(it.b)
			updated[it.key] = true
		}

		snapshot := make([]ranking.Entry, 0, len(totals))
		for _, e := range totals {
			snapshot = append(snapshot, *e)
		}
		ranking.Sort(snapshot)
		for _, r := range ranking.AssignRanks(snapshot) {
			rows = append(rows, Row{
				Date:    day,
				Entity:  r.Key,
				Badges:  r.Count,
				Points:  r.Points,
				Score:   Score(r.Count, r.Points),
				Rank:    r.Rank,
				Updated: updated[r.Key],
			})
		}
	}
	return rows
}

// Field selects the value pivoted into a wide table.
type Field string

// Pivot fields.
const (
	FieldScore  Field = "score"
	FieldBadges Field = "badges"
	FieldPoints Field = "points"
	FieldRank   Field = "rank"
)

// ParseField parses a field name; empty means score.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FieldScore, nil
	case FieldScore, FieldBadges, FieldPoints, FieldRank:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

func (f Field) value(r Row) float64 {
	switch f {
	case FieldBadges:
		return float64(r.Badges)
	case FieldPoints:
		return float64(r.Points)
	case FieldRank:
		return float64(r.Rank)
	default:
		return r.Score
	}
}

// TableRow is one date of a wide table.
type TableRow struct {
	Date   time.Time
	Values []float64 // aligned with Table.Entities
}

// Table is the wide form of a timeline.
type Table struct {
	Field    Field
	Entities []string // first-appearance order
	Rows     []TableRow
	Images   []string // aligned with Entities; nil when unknown
}

// PivotCumulative turns long rows into one row per date and one column per
// entity. Missing values are carried forward from the entity's previous
// date; before its first appearance an entity reads 0.
func PivotCumulative(rows []Row, field Field) Table {
	if field == "" {
		field = FieldScore
	}
	t := Table{Field: field, Entities: make([]string, 0), Rows: make([]TableRow, 0)}

	column := make(map[string]int)
	byDate := make(map[time.Time]map[string]float64)
	dates := make([]time.Time, 0)
	for _, r := range rows {
		if _, ok := column[r.Entity]; !ok {
			column[r.Entity] = len(t.Entities)
			t.Entities = append(t.Entities, r.Entity)
		}
		values, ok := byDate[r.Date]
		if !ok {
			values = make(map[string]float64)
			byDate[r.Date] = values
			dates = append(dates, r.Date)
		}
		values[r.Entity] = field.value(r)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	last := make([]float64, len(t.Entities))
	for _, d := range dates {
		values := byDate[d]
		out := make([]float64, len(t.Entities))
		for i, entity := range t.Entities {
			if v, ok := values[entity]; ok {
				last[i] = v
			}
			out[i] = last[i]
		}
		t.Rows = append(t.Rows, TableRow{Date: d, Values: out})
	}
	return t
}
