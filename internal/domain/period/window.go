package period

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/badgeboard/internal/domain/model"
)

// ErrUnknownKind is returned for an unsupported period kind.
var ErrUnknownKind = errors.New("unknown period kind")

// Kind selects the length of a leaderboard window.
type Kind string

// Supported kinds.
const (
	KindAll     Kind = "all"
	KindSeason  Kind = "season"
	KindQuarter Kind = "quarter"
	KindMonth   Kind = "month"
)

// AllTimeLabel is the label of the unbounded window.
const AllTimeLabel = "All time"

// ParseKind parses a kind name; empty means all.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAll, nil
	case KindAll, KindSeason, KindQuarter, KindMonth:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Window is a half-open date range [Start, End). A zero bound is open.
type Window struct {
	Start time.Time
	End   time.Time
}

// Unbounded reports whether neither side is set.
func (w Window) Unbounded() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether d falls in the window. A zero d is never
// contained by a bounded window.
func (w Window) Contains(d time.Time) bool {
	if w.Unbounded() {
		return true
	}
	if d.IsZero() {
		return false
	}
	if !w.Start.IsZero() && d.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !d.Before(w.End) {
		return false
	}
	return true
}

// Empty reports whether a bounded window can contain no date.
func (w Window) Empty() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.Start.Before(w.End)
}

// Intersect narrows w by other: the later start and the earlier end win.
func (w Window) Intersect(other Window) Window {
	out := w
	if out.Start.IsZero() || (!other.Start.IsZero() && other.Start.After(out.Start)) {
		out.Start = other.Start
	}
	if out.End.IsZero() || (!other.End.IsZero() && other.End.Before(out.End)) {
		out.End = other.End
	}
	return out
}

// Filter returns the badges inside w. Undated badges only survive an
// unbounded window.
func Filter(badges []model.Badge, w Window) []model.Badge {
	out := make([]model.Badge, 0, len(badges))
	for _, b := range badges {
		if w.Contains(b.Date) {
			out = append(out, b)
		}
	}
	return out
}

// Resolve returns the window of the given kind containing anchor.
func Resolve(kind Kind, anchor time.Time) (Window, error) {
	anchor = model.Day(anchor)
	switch kind {
	case KindAll, "":
		return Window{}, nil
	case KindSeason:
		return SeasonBounds(SeasonOf(anchor)), nil
	case KindQuarter:
		return Window{Start: QuarterStart(anchor), End: NextQuarterStart(anchor)}, nil
	case KindMonth:
		return Window{Start: MonthStart(anchor), End: NextMonthStart(anchor)}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Label names the window of the given kind.
func Label(kind Kind, w Window) string {
	switch kind {
	case KindSeason:
		return SeasonLabel(SeasonOf(w.Start))
	case KindQuarter:
		return QuarterLabel(w.Start)
	case KindMonth:
		return MonthLabel(w.Start)
	default:
		return AllTimeLabel
	}
}

// Period is one selectable window.
type Period struct {
	Kind   Kind
	Key    string // window start as YYYY-MM-DD, or "all"
	Label  string
	Window Window
	Count  int
}

// Available lists the distinct windows of kind that contain at least one
// dated badge, newest first.
func Available(badges []model.Badge, kind Kind) ([]Period, error) {
	if kind == KindAll || kind == "" {
		return []Period{{Kind: KindAll, Key: string(KindAll), Label: AllTimeLabel, Count: len(badges)}}, nil
	}

	byStart := make(map[time.Time]*Period)
	for _, b := range badges {
		if !b.HasDate() {
			continue
		}
		w, err := Resolve(kind, b.Date)
		if err != nil {
			return nil, err
		}
		p, ok := byStart[w.Start]
		if !ok {
			p = &Period{
				Kind:   kind,
				Key:    w.Start.Format(model.DateLayout),
				Label:  Label(kind, w),
				Window: w,
			}
			byStart[w.Start] = p
		}
		p.Count++
	}

	out := make([]Period, 0, len(byStart))
	for _, p := range byStart {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Window.Start.After(out[j].Window.Start)
	})
	return out, nil
}
