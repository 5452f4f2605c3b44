// Package summary derives per-entity breakdowns and awards from a filtered
// set of badges.
package summary

import (
	"sort"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/ranking"
)

// TierCounts counts badges per tier label as stored.
type TierCounts map[string]int

// Breakdown maps primary -> secondary -> tier -> count.
type Breakdown map[string]map[string]TierCounts

// DetailBreakdown tallies, for every badge with both keys, how often each
// secondary entity appears under its primary entity, split by tier.
func DetailBreakdown(badges []model.Badge, primary, secondary ranking.KeyFunc) Breakdown {
	out := make(Breakdown)
	for _, b := range badges {
		p, s := primary(b), secondary(b)
		if p == "" || s == "" {
			continue
		}
		inner, ok := out[p]
		if !ok {
			inner = make(map[string]TierCounts)
			out[p] = inner
		}
		tiers, ok := inner[s]
		if !ok {
			tiers = make(TierCounts)
			inner[s] = tiers
		}
		tiers[b.Tier]++
	}
	return out
}

// Total sums the counts across tiers.
func (t TierCounts) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// SecondaryCount is one line of a primary entity's breakdown.
type SecondaryCount struct {
	Key   string     `json:"key"`
	Count int        `json:"count"`
	Tiers TierCounts `json:"tiers"`
}

// Secondaries returns the breakdown of primary ordered by count desc, then key.
func (b Breakdown) Secondaries(primary string) []SecondaryCount {
	inner := b[primary]
	out := make([]SecondaryCount, 0, len(inner))
	for key, tiers := range inner {
		out = append(out, SecondaryCount{Key: key, Count: tiers.Total(), Tiers: tiers})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// UniqueCount is the number of distinct secondaries of one primary.
type UniqueCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// MostUnique returns every primary tied for the most distinct secondaries,
// sorted by key.
func MostUnique(badges []model.Badge, primary, secondary ranking.KeyFunc) []UniqueCount {
	distinct := make(map[string]map[string]struct{})
	for _, b := range badges {
		p, s := primary(b), secondary(b)
		if p == "" || s == "" {
			continue
		}
		set, ok := distinct[p]
		if !ok {
			set = make(map[string]struct{})
			distinct[p] = set
		}
		set[s] = struct{}{}
	}

	best := 0
	for _, set := range distinct {
		if len(set) > best {
			best = len(set)
		}
	}
	out := make([]UniqueCount, 0)
	for p, set := range distinct {
		if len(set) == best {
			out = append(out, UniqueCount{Key: p, Count: best})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// PointsLeader is an entry tied for the most points.
type PointsLeader struct {
	Key    string `json:"key"`
	Points int    `json:"points"`
}

// TopByPoints returns every ranked entry tied for the highest point total,
// in ranking order.
func TopByPoints(ranked []ranking.Ranked) []PointsLeader {
	out := make([]PointsLeader, 0)
	if len(ranked) == 0 {
		return out
	}
	best := ranked[0].Points
	for _, r := range ranked[1:] {
		if r.Points > best {
			best = r.Points
		}
	}
	for _, r := range ranked {
		if r.Points == best {
			out = append(out, PointsLeader{Key: r.Key, Points: r.Points})
		}
	}
	return out
}

// Award bundles the leaderboard callouts.
type Award struct {
	MostUnique []UniqueCount  `json:"most_unique"`
	MostPoints []PointsLeader `json:"most_points"`
}

// Awards computes both callouts for one leaderboard.
func Awards(badges []model.Badge, ranked []ranking.Ranked, primary, secondary ranking.KeyFunc) Award {
	return Award{
		MostUnique: MostUnique(badges, primary, secondary),
		MostPoints: TopByPoints(ranked),
	}
}
