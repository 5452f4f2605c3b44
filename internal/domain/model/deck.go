package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Deck identifies the archetype a badge was won with.
type Deck struct {
	ID    string   `json:"id,omitempty"`
	Name  string   `json:"name,omitempty"`
	Icons []string `json:"icons,omitempty"`
}

// NewDeck builds a deck whose id is the lower-cased name without spaces.
func NewDeck(name string, icons []string) *Deck {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &Deck{
		ID:    DeckIDFromName(name),
		Name:  name,
		Icons: icons,
	}
}

// DeckIDFromName derives a deck id from its display name.
func DeckIDFromName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), deckIDSpaceSeparator, "")
}

// Key is the grouping key of the deck.
func (d *Deck) Key() string {
	if d == nil {
		return ""
	}
	return d.ID
}

// Label is the display name, falling back to the id.
func (d *Deck) Label() string {
	if d == nil {
		return ""
	}
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// FirstIcon returns the first non-empty icon value.
func (d *Deck) FirstIcon() string {
	if d == nil {
		return ""
	}
	for _, icon := range d.Icons {
		if s := strings.TrimSpace(icon); s != "" {
			return s
		}
	}
	return ""
}

// IsIconURL reports whether an icon value is already an absolute URL rather
// than an id to resolve.
func IsIconURL(icon string) bool {
	lower := strings.ToLower(strings.TrimSpace(icon))
	return strings.HasPrefix(lower, iconURLPrefix) || strings.HasPrefix(lower, iconSecureURLPrefix)
}

// decodeDeck accepts an object, null, {} or a bare string.
func decodeDeck(data json.RawMessage) (*Deck, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("badge: decode deck: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		return &Deck{ID: s, Name: s}, nil
	case '{':
		var raw struct {
			ID    json.RawMessage `json:"id"`
			Name  json.RawMessage `json:"name"`
			Icons json.RawMessage `json:"icons"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("badge: decode deck: %w", err)
		}
		d := &Deck{
			ID:    looseString(raw.ID),
			Name:  looseString(raw.Name),
			Icons: decodeIcons(raw.Icons),
		}
		if d.ID == "" && d.Name == "" {
			return nil, nil
		}
		return d, nil
	default:
		return nil, fmt.Errorf("badge: deck must be an object or string, got %s", string(trimmed))
	}
}

func decodeIcons(data json.RawMessage) []string {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		if s := looseString(data); s != "" {
			return []string{s}
		}
		return nil
	}
	icons := make([]string, 0, len(items))
	for _, item := range items {
		if s := looseString(item); s != "" {
			icons = append(icons, s)
		}
	}
	if len(icons) == 0 {
		return nil
	}
	return icons
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
