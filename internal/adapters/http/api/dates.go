package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/okian/badgeboard/internal/domain/model"
)

// dateParser understands English phrases such as "yesterday" or
// "last saturday" in addition to numeric dates.
var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseBadgeDate reads an ISO date, or a natural-language date relative to
// now. The result is a calendar day.
func parseBadgeDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: missing date", ErrBadRequest)
	}
	if t, err := model.ParseDate(s); err == nil {
		return t, nil
	}
	r, err := dateParser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %w", ErrBadRequest, s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: unrecognised date %q", ErrBadRequest, s)
	}
	return model.Day(r.Time), nil
}
