// Package types contains the view models served to clients.
package types

import "github.com/okian/badgeboard/internal/domain/summary"

// Entry is one ranked leaderboard line.
type Entry struct {
	Rank      int                      `json:"rank"`
	Key       string                   `json:"key"`
	Label     string                   `json:"label"`
	Count     int                      `json:"count"`
	Points    int                      `json:"points"`
	Breakdown []summary.SecondaryCount `json:"breakdown,omitempty"`
}

// PeriodView describes the window a view was computed over.
type PeriodView struct {
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Label string `json:"label"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Leaderboard is a ranked view over one window.
type Leaderboard struct {
	GroupBy string        `json:"group_by"`
	Period  PeriodView    `json:"period"`
	Total   int           `json:"total"`
	Entries []Entry       `json:"entries"`
	Awards  summary.Award `json:"awards"`
}

// Option is a dropdown choice.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Badge is a badge as displayed.
type Badge struct {
	Trainer    string   `json:"trainer"`
	Pronouns   string   `json:"pronouns"`
	DeckID     string   `json:"deck_id,omitempty"`
	DeckName   string   `json:"deck_name,omitempty"`
	DeckLabel  string   `json:"deck_label,omitempty"`
	DeckIcons  []string `json:"deck_icons,omitempty"`
	Store      string   `json:"store,omitempty"`
	Date       string   `json:"date,omitempty"`
	Tier       string   `json:"tier,omitempty"`
	Format     string   `json:"format,omitempty"`
	Color      string   `json:"color,omitempty"`
	Background string   `json:"background,omitempty"`
	Points     int      `json:"points"`
}

// Profile gathers every badge of one trainer or deck.
type Profile struct {
	Key       string                   `json:"key"`
	Label     string                   `json:"label"`
	Count     int                      `json:"count"`
	Points    int                      `json:"points"`
	Badges    []Badge                  `json:"badges"`
	Breakdown []summary.SecondaryCount `json:"breakdown"`
}

// FormOptions lists the choices offered when recording a badge.
type FormOptions struct {
	Trainers    []string `json:"trainers"`
	Stores      []string `json:"stores"`
	Decks       []Option `json:"decks"`
	Pronouns    []string `json:"pronouns"`
	Tiers       []string `json:"tiers"`
	Formats     []string `json:"formats"`
	Backgrounds []string `json:"backgrounds"`
}
