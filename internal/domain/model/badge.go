// Package model contains the badge record and the values derived from it.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the on-disk and wire format of a badge date.
const DateLayout = time.DateOnly

// Tournament tiers, lower-case as they are matched.
const (
	TierLocals          = "locals"
	TierOnline          = "online"
	TierLeagueChallenge = "league challenge"
	TierLeagueCup       = "league cup"
	TierRegionals       = "regionals"
	TierInternationals  = "internationals"
	TierWorlds          = "worlds"
)

// Play formats.
const (
	FormatStandard = "Standard"
	FormatGLC      = "GLC"
	FormatExpanded = "Expanded"
	FormatOther    = "Other"
)

// DefaultPronouns is shown when a trainer left pronouns blank.
const DefaultPronouns = "their"

const (
	iconURLPrefix        = "http://"
	iconSecureURLPrefix  = "https://"
	deckIDSpaceSeparator = " "
)

// Tiers lists the tier vocabulary in display order.
var Tiers = []string{
	TierLocals, TierOnline, TierLeagueChallenge, TierLeagueCup,
	TierRegionals, TierInternationals, TierWorlds,
}

// Formats lists the format vocabulary in display order.
var Formats = []string{FormatStandard, FormatGLC, FormatExpanded, FormatOther}

// IsKnownTier reports whether tier is in the vocabulary, ignoring case.
func IsKnownTier(tier string) bool {
	t := strings.ToLower(strings.TrimSpace(tier))
	for _, known := range Tiers {
		if t == known {
			return true
		}
	}
	return false
}

// Badge is one earned badge. Records are appended once and never edited.
// Every field is optional on disk; the zero value is the default.
type Badge struct {
	Trainer    string
	Pronouns   string
	Deck       *Deck
	Store      string
	Date       time.Time // UTC midnight; zero when absent or unparseable
	RawDate    string    // date exactly as stored
	Tier       string
	Format     string
	Color      string
	Background string

	// Extra keeps fields this version does not know about so they survive
	// a decode/encode cycle.
	Extra map[string]json.RawMessage
}

// HasDate reports whether the record carries a usable date.
func (b Badge) HasDate() bool { return !b.Date.IsZero() }

// DeckID returns the deck id or "".
func (b Badge) DeckID() string {
	if b.Deck == nil {
		return ""
	}
	return b.Deck.ID
}

// DeckName returns the deck display name or "".
func (b Badge) DeckName() string {
	if b.Deck == nil {
		return ""
	}
	return b.Deck.Label()
}

// PronounsOrDefault returns the stored pronouns or "their".
func (b Badge) PronounsOrDefault() string {
	if b.Pronouns == "" {
		return DefaultPronouns
	}
	return b.Pronouns
}

// ParseDate parses a YYYY-MM-DD date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// known JSON keys, in the order they are written.
var badgeKeys = []string{"trainer", "pronouns", "deck", "store", "date", "tier", "format", "color", "background"}

// UnmarshalJSON decodes a stored record. A bad date leaves Date zero and is
// not an error; a non-object line is.
func (b *Badge) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("badge: expected object, got null")
	}

	*b = Badge{}
	strs := map[string]*string{
		"trainer":    &b.Trainer,
		"pronouns":   &b.Pronouns,
		"store":      &b.Store,
		"date":       &b.RawDate,
		"tier":       &b.Tier,
		"format":     &b.Format,
		"color":      &b.Color,
		"background": &b.Background,
	}
	for key, dst := range strs {
		v, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)
		*dst = looseString(v)
	}

	if v, ok := raw["deck"]; ok {
		delete(raw, "deck")
		deck, err := decodeDeck(v)
		if err != nil {
			return err
		}
		b.Deck = deck
	}

	if b.RawDate != "" {
		if t, err := ParseDate(b.RawDate); err == nil {
			b.Date = t
		}
	}
	if len(raw) > 0 {
		b.Extra = raw
	}
	return nil
}

// MarshalJSON writes the record as one flat object. Empty optional fields are
// omitted except trainer and date; unknown fields from Extra are kept.
func (b Badge) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v any) error {
		enc, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("badge: encode %s: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(enc)
		return nil
	}

	date := b.RawDate
	if b.HasDate() {
		date = b.Date.Format(DateLayout)
	}
	values := map[string]any{
		"trainer":    b.Trainer,
		"pronouns":   b.Pronouns,
		"deck":       b.Deck,
		"store":      b.Store,
		"date":       date,
		"tier":       b.Tier,
		"format":     b.Format,
		"color":      b.Color,
		"background": b.Background,
	}
	for _, key := range badgeKeys {
		v := values[key]
		if s, ok := v.(string); ok && s == "" && key != "trainer" && key != "date" {
			continue
		}
		if d, ok := v.(*Deck); ok && d == nil {
			continue
		}
		if err := write(key, v); err != nil {
			return nil, err
		}
	}
	for _, key := range sortedKeys(b.Extra) {
		if err := write(key, b.Extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// looseString accepts a JSON string and tolerates null or other scalars.
func looseString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(v))
	if trimmed == "null" || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ""
	}
	return trimmed
}

// Backgrounds lists the energy-type backgrounds a badge card can use.
var Backgrounds = []string{
	"Grass", "Fire", "Water", "Lightning", "Psychic", "Fighting",
	"Dark", "Metal", "Dragon", "Fairy", "Colorless",
}

// PronounChoices lists the pronouns offered when recording a badge.
var PronounChoices = []string{DefaultPronouns, "her", "his"}
