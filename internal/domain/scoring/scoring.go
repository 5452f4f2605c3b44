// Package scoring maps tournament tiers to tiebreak points.
package scoring

import (
	"strings"

	"github.com/okian/badgeboard/internal/domain/model"
)

// Default tier weights.
const (
	localsPoints          = 1
	onlinePoints          = 1
	leagueChallengePoints = 2
	leagueCupPoints       = 3
	regionalsPoints       = 5
	internationalsPoints  = 5
	worldsPoints          = 5
)

// Scorer assigns tiebreak points to a badge.
type Scorer interface {
	Points(b model.Badge) int
}

// Option applies a configuration option to the TierScorer.
type Option func(*TierScorer)

// WithTierWeights overrides entries of the default table. Keys are matched
// case-insensitively; negative weights are ignored.
func WithTierWeights(weights map[string]int) Option {
	return func(s *TierScorer) {
		for tier, weight := range weights {
			key := normalize(tier)
			if key == "" || weight < 0 {
				continue
			}
			s.weights[key] = weight
		}
	}
}

// TierScorer implements Scorer with a tier lookup table.
type TierScorer struct {
	weights map[string]int
}

// NewTierScorer creates a scorer with the default table.
func NewTierScorer(opts ...Option) *TierScorer {
	s := &TierScorer{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultWeights returns a copy of the default tier table.
func DefaultWeights() map[string]int {
	return map[string]int{
		model.TierLocals:          localsPoints,
		model.TierOnline:          onlinePoints,
		model.TierLeagueChallenge: leagueChallengePoints,
		model.TierLeagueCup:       leagueCupPoints,
		model.TierRegionals:       regionalsPoints,
		model.TierInternationals:  internationalsPoints,
		model.TierWorlds:          worldsPoints,
	}
}

// Points returns the weight of the badge tier.
func (s *TierScorer) Points(b model.Badge) int {
	return s.TierPoints(b.Tier)
}

// TierPoints returns the weight of tier, 0 when unknown or empty.
func (s *TierScorer) TierPoints(tier string) int {
	return s.weights[normalize(tier)]
}

// Weights returns a copy of the active table.
func (s *TierScorer) Weights() map[string]int {
	out := make(map[string]int, len(s.weights))
	for k, v := range s.weights {
		out[k] = v
	}
	return out
}

var defaultScorer = NewTierScorer() //nolint:gochecknoglobals // read-only default table

// TierPoints returns the default weight of tier.
func TierPoints(tier string) int {
	return defaultScorer.TierPoints(tier)
}

// Default returns a scorer using the default table.
func Default() *TierScorer { return defaultScorer }

func normalize(tier string) string {
	return strings.ToLower(strings.TrimSpace(tier))
}
