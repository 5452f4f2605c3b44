// Package ranking groups badges by an arbitrary key and orders the groups by
// badge count, then tier points.
package ranking

import (
	"sort"
	"strings"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/scoring"
)

// Entry is the tally of one group.
type Entry struct {
	Key    string `json:"key"`
	Count  int    `json:"count"`
	Points int    `json:"points"`
}

// Ranked is an entry with its competition rank.
type Ranked struct {
	Rank int `json:"rank"`
	Entry
}

// Group buckets badges by key, skipping badges whose key is empty. Each
// bucket keeps the input order.
func Group(badges []model.Badge, key KeyFunc) map[string][]model.Badge {
	groups := make(map[string][]model.Badge)
	for _, b := range badges {
		k := key(b)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], b)
	}
	return groups
}

// GroupOrder returns the group keys by size descending, then key.
func GroupOrder(groups map[string][]model.Badge) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, nj := len(groups[keys[i]]), len(groups[keys[j]])
		if ni != nj {
			return ni > nj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Compare orders entries by count desc, points desc, then key
// case-insensitively and finally by raw key. It returns a negative number
// when a ranks ahead of b.
func Compare(a, b Entry) int {
	switch {
	case a.Count != b.Count:
		if a.Count > b.Count {
			return -1
		}
		return 1
	case a.Points != b.Points:
		if a.Points > b.Points {
			return -1
		}
		return 1
	}
	if c := strings.Compare(strings.ToLower(a.Key), strings.ToLower(b.Key)); c != 0 {
		return c
	}
	return strings.Compare(a.Key, b.Key)
}

// Tied reports whether two entries share a rank.
func Tied(a, b Entry) bool {
	return a.Count == b.Count && a.Points == b.Points
}

// WeightedRank tallies each group and sorts the tallies with Compare.
// A nil scorer uses the default tier table.
func WeightedRank(badges []model.Badge, key KeyFunc, scorer scoring.Scorer) []Entry {
	if scorer == nil {
		scorer = scoring.Default()
	}
	index := make(map[string]int)
	entries := make([]Entry, 0)
	for _, b := range badges {
		k := key(b)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(entries)
			index[k] = i
			entries = append(entries, Entry{Key: k})
		}
		entries[i].Count++
		entries[i].Points += scorer.Points(b)
	}
	Sort(entries)
	return entries
}

// Sort orders entries in place with Compare.
func Sort(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return Compare(entries[i], entries[j]) < 0
	})
}

// AssignRanks gives sorted entries standard competition ranks ("1224"):
// tied entries share a rank and the next entry takes its 1-based position.
func AssignRanks(entries []Entry) []Ranked {
	out := make([]Ranked, len(entries))
	for i, e := range entries {
		rank := i + 1
		if i > 0 && Tied(entries[i-1], e) {
			rank = out[i-1].Rank
		}
		out[i] = Ranked{Rank: rank, Entry: e}
	}
	return out
}

// Rank is WeightedRank followed by AssignRanks.
func Rank(badges []model.Badge, key KeyFunc, scorer scoring.Scorer) []Ranked {
	return AssignRanks(WeightedRank(badges, key, scorer))
}
