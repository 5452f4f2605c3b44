package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/summary"
	"github.com/okian/badgeboard/internal/domain/types"
)

// Filter narrows a badge listing. Empty fields match everything.
type Filter struct {
	Trainer string
	DeckID  string
}

func (f Filter) match(b model.Badge) bool {
	if f.Trainer != "" && ranking.ByTrainer(b) != f.Trainer {
		return false
	}
	if f.DeckID != "" && b.DeckID() != f.DeckID {
		return false
	}
	return true
}

// Badges lists matching badges newest first.
func (s *Service) Badges(ctx context.Context, f Filter) ([]types.Badge, error) {
	badges, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Badge, 0, len(badges))
	for _, b := range badges {
		if f.match(b) {
			out = append(out, s.badgeView(b))
		}
	}
	return out, nil
}

// Trainers lists trainers by badge count, then name.
func (s *Service) Trainers(ctx context.Context) ([]types.Option, error) {
	badges, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	groups := ranking.Group(badges, ranking.ByTrainer)
	out := make([]types.Option, 0, len(groups))
	for _, name := range ranking.GroupOrder(groups) {
		out = append(out, types.Option{Key: name, Label: name, Count: len(groups[name])})
	}
	return out, nil
}

// Decks lists decks by badge count, then display name.
func (s *Service) Decks(ctx context.Context) ([]types.Option, error) {
	badges, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return deckOptions(badges), nil
}

func deckOptions(badges []model.Badge) []types.Option {
	groups := ranking.Group(badges, ranking.ByDeck)
	out := make([]types.Option, 0, len(groups))
	for id, group := range groups {
		// groups keep store order, so the first badge is the newest
		out = append(out, types.Option{Key: id, Label: group[0].DeckName(), Count: len(group)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// TrainerProfile returns every badge of a trainer with their deck breakdown.
func (s *Service) TrainerProfile(ctx context.Context, name string) (types.Profile, error) {
	start := time.Now()
	defer observe("trainer_profile", start)

	name = strings.TrimSpace(name)
	return s.profile(ctx, Filter{Trainer: name}, name, ranking.ByTrainer, ranking.ByDeckName)
}

// DeckProfile returns every badge won with a deck and who won them.
func (s *Service) DeckProfile(ctx context.Context, id string) (types.Profile, error) {
	start := time.Now()
	defer observe("deck_profile", start)

	id = strings.TrimSpace(id)
	return s.profile(ctx, Filter{DeckID: id}, id, ranking.ByDeck, ranking.ByTrainer)
}

func (s *Service) profile(ctx context.Context, f Filter, key string, primary, secondary ranking.KeyFunc) (types.Profile, error) {
	if key == "" {
		return types.Profile{}, fmt.Errorf("%w: empty key", ErrInvalidArgument)
	}
	all, err := s.readAll(ctx)
	if err != nil {
		return types.Profile{}, err
	}
	matched := make([]model.Badge, 0)
	for _, b := range all {
		if f.match(b) {
			matched = append(matched, b)
		}
	}
	if len(matched) == 0 {
		return types.Profile{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	p := types.Profile{
		Key:       key,
		Label:     key,
		Count:     len(matched),
		Badges:    make([]types.Badge, len(matched)),
		Breakdown: summary.DetailBreakdown(matched, primary, secondary).Secondaries(key),
	}
	if f.DeckID != "" {
		p.Label = matched[0].DeckName()
	}
	for i, b := range matched {
		p.Badges[i] = s.badgeView(b)
		p.Points += p.Badges[i].Points
	}
	return p, nil
}

// FormOptions lists the choices offered when recording a badge.
func (s *Service) FormOptions(ctx context.Context) (types.FormOptions, error) {
	badges, err := s.readAll(ctx)
	if err != nil {
		return types.FormOptions{}, err
	}
	trainers := ranking.GroupOrder(ranking.Group(badges, ranking.ByTrainer))
	stores := ranking.GroupOrder(ranking.Group(badges, ranking.ByStore))
	sort.Strings(trainers)
	sort.Strings(stores)
	return types.FormOptions{
		Trainers:    trainers,
		Stores:      stores,
		Decks:       deckOptions(badges),
		Pronouns:    model.PronounChoices,
		Tiers:       model.Tiers,
		Formats:     model.Formats,
		Backgrounds: model.Backgrounds,
	}, nil
}

func (s *Service) badgeView(b model.Badge) types.Badge {
	v := types.Badge{
		Trainer:    b.Trainer,
		Pronouns:   b.PronounsOrDefault(),
		DeckID:     b.DeckID(),
		DeckName:   b.DeckName(),
		Store:      b.Store,
		Date:       b.RawDate,
		Tier:       b.Tier,
		Format:     b.Format,
		Color:      b.Color,
		Background: b.Background,
		Points:     s.scorer.Points(b),
	}
	if b.HasDate() {
		v.Date = b.Date.Format(model.DateLayout)
	}
	if b.Deck != nil {
		v.DeckLabel = s.labels.FormatDeck(b.Deck)
		v.DeckIcons = deckIconURLs(b.Deck, s.icons)
	}
	return v
}
