package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/pkg/logger"
)

// Validate checks a badge before it is appended.
func Validate(b model.Badge) error {
	switch {
	case strings.TrimSpace(b.Trainer) == "":
		return fmt.Errorf("%w: missing trainer", ErrInvalidBadge)
	case !b.HasDate():
		return fmt.Errorf("%w: missing or invalid date", ErrInvalidBadge)
	case b.Tier != "" && !model.IsKnownTier(b.Tier):
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidBadge, b.Tier)
	}
	return nil
}

// Append validates b and adds it to the log. Demo data is read-only.
func (s *Service) Append(ctx context.Context, b model.Badge) error {
	if s.demo {
		return ErrReadOnly
	}
	b.Trainer = strings.TrimSpace(b.Trainer)
	if err := Validate(b); err != nil {
		return err
	}
	b.RawDate = b.Date.Format(model.DateLayout)
	if err := s.store.Append(ctx, b); err != nil {
		return err
	}
	s.appends.Add(1)
	s.logger.Info(ctx, "badge recorded",
		logger.String("trainer", b.Trainer),
		logger.String("deck", b.DeckID()),
		logger.String("date", b.RawDate),
		logger.String("tier", b.Tier),
	)
	return nil
}
