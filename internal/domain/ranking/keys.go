package ranking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/badgeboard/internal/domain/model"
)

// ErrUnknownGroupBy is returned for an unsupported grouping.
var ErrUnknownGroupBy = errors.New("unknown group-by")

// KeyFunc extracts the grouping key of a badge. An empty key excludes the
// badge from every group.
type KeyFunc func(model.Badge) string

// GroupBy names a built-in KeyFunc.
type GroupBy string

// Supported groupings.
const (
	GroupByTrainer  GroupBy = "trainer"
	GroupByDeck     GroupBy = "deck"
	GroupByDeckName GroupBy = "deck_name"
	GroupByStore    GroupBy = "store"
	GroupByFormat   GroupBy = "format"
	GroupByTier     GroupBy = "tier"
)

// ParseGroupBy parses a grouping name; empty means trainer.
func ParseGroupBy(s string) (GroupBy, error) {
	g := GroupBy(strings.ToLower(strings.TrimSpace(s)))
	if g == "" {
		return GroupByTrainer, nil
	}
	if _, err := KeyFor(g); err != nil {
		return "", err
	}
	return g, nil
}

// KeyFor returns the KeyFunc of a grouping.
func KeyFor(g GroupBy) (KeyFunc, error) {
	switch g {
	case GroupByTrainer:
		return ByTrainer, nil
	case GroupByDeck:
		return ByDeck, nil
	case GroupByDeckName:
		return ByDeckName, nil
	case GroupByStore:
		return ByStore, nil
	case GroupByFormat:
		return ByFormat, nil
	case GroupByTier:
		return ByTier, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroupBy, g)
	}
}

// ByTrainer keys by trainer name.
func ByTrainer(b model.Badge) string { return strings.TrimSpace(b.Trainer) }

// ByDeck keys by deck id.
func ByDeck(b model.Badge) string { return b.DeckID() }

// ByDeckName keys by deck name, falling back to the id.
func ByDeckName(b model.Badge) string { return b.DeckName() }

// ByStore keys by store.
func ByStore(b model.Badge) string { return strings.TrimSpace(b.Store) }

// ByFormat keys by format.
func ByFormat(b model.Badge) string { return strings.TrimSpace(b.Format) }

// ByTier keys by lower-cased tier.
func ByTier(b model.Badge) string { return strings.ToLower(strings.TrimSpace(b.Tier)) }
