// Package repository persists badge records as an append-only log.
package repository

import (
	"context"
	"sort"

	"github.com/okian/badgeboard/internal/domain/model"
)

// Store provides read/append access to the badge log.
type Store interface {
	// ReadAll returns every readable record sorted newest first by
	// (date, append order). Undated records sort last.
	ReadAll(ctx context.Context) ([]model.Badge, error)

	// Append adds one record at the end of the log.
	Append(ctx context.Context, b model.Badge) error

	// Path describes where the log lives.
	Path() string
}

// positioned pairs a record with its position in the log.
type positioned struct {
	badge model.Badge
	line  int
}

// sortNewestFirst orders records by (date desc, line desc). A zero date is
// the minimum date.
func sortNewestFirst(records []positioned) []model.Badge {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.badge.Date.Equal(b.badge.Date) {
			return a.badge.Date.After(b.badge.Date)
		}
		return a.line > b.line
	})
	out := make([]model.Badge, len(records))
	for i, r := range records {
		out[i] = r.badge
	}
	return out
}
