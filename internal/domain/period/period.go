// Package period computes season, quarter and month windows. Seasons run
// July 1 to June 30 and are named by the year they end in.
package period

import (
	"fmt"
	"time"
)

const seasonStartMonth = time.July

// SeasonStart returns July 1 of the season containing d.
func SeasonStart(d time.Time) time.Time {
	year := d.Year()
	if d.Month() < seasonStartMonth {
		year--
	}
	return date(year, seasonStartMonth, 1)
}

// SeasonOf returns the ending year of the season containing d.
func SeasonOf(d time.Time) int {
	return SeasonStart(d).Year() + 1
}

// SeasonBounds returns [July 1 year-1, July 1 year).
func SeasonBounds(year int) Window {
	return Window{
		Start: date(year-1, seasonStartMonth, 1),
		End:   date(year, seasonStartMonth, 1),
	}
}

// QuarterStart returns the first day of the quarter containing d. Quarters
// are Jul-Sep, Oct-Dec, Jan-Mar and Apr-Jun.
func QuarterStart(d time.Time) time.Time {
	m := d.Month()
	first := m - (m-1)%3
	return date(d.Year(), first, 1)
}

// NextQuarterStart returns the first day of the quarter after the one
// containing d.
func NextQuarterStart(d time.Time) time.Time {
	return QuarterStart(d).AddDate(0, 3, 0)
}

// MonthStart returns the first day of d's month.
func MonthStart(d time.Time) time.Time {
	return date(d.Year(), d.Month(), 1)
}

// NextMonthStart returns the first day of the month after d's.
func NextMonthStart(d time.Time) time.Time {
	return MonthStart(d).AddDate(0, 1, 0)
}

// QuarterLabel names the quarter starting at start, e.g. "2026 July - September".
func QuarterLabel(start time.Time) string {
	q := QuarterStart(start)
	last := q.AddDate(0, 2, 0)
	return fmt.Sprintf("%d %s - %s", SeasonOf(q), q.Month(), last.Month())
}

// MonthLabel names the month, e.g. "July 2025".
func MonthLabel(start time.Time) string {
	return fmt.Sprintf("%s %d", start.Month(), start.Year())
}

// SeasonLabel names the season ending in year, e.g. "2025-2026 Season".
func SeasonLabel(year int) string {
	return fmt.Sprintf("%d-%d Season", year-1, year)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
