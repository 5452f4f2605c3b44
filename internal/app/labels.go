package service

import (
	"html"
	"strings"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/timeseries"
)

// LabelFormatter renders a deck for display.
type LabelFormatter interface {
	FormatDeck(d *model.Deck) string
}

// LabelFormatterFunc adapts a function to LabelFormatter.
type LabelFormatterFunc func(d *model.Deck) string

// FormatDeck calls f.
func (f LabelFormatterFunc) FormatDeck(d *model.Deck) string { return f(d) }

// HTMLLabelFormatter renders the deck icons followed by its name as inline
// HTML.
type HTMLLabelFormatter struct {
	Icons timeseries.IconResolver
}

// FormatDeck implements LabelFormatter.
func (f HTMLLabelFormatter) FormatDeck(d *model.Deck) string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<span class="deck-label">`)
	for _, url := range deckIconURLs(d, f.Icons) {
		b.WriteString(`<img class="deck-icon" src="`)
		b.WriteString(html.EscapeString(url))
		b.WriteString(`" alt="">`)
	}
	b.WriteString(`<span class="deck-name">`)
	b.WriteString(html.EscapeString(d.Label()))
	b.WriteString(`</span></span>`)
	return b.String()
}

// deckIconURLs resolves every icon of d, dropping those that resolve to "".
func deckIconURLs(d *model.Deck, icons timeseries.IconResolver) []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.Icons))
	for _, icon := range d.Icons {
		if url := timeseries.ResolveIcon(icon, icons); url != "" {
			out = append(out, url)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
