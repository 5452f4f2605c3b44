// Package export writes timeline tables as CSV, XLSX or PNG charts.
package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/timeseries"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks a file format from the extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// ContentType is the HTTP media type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Long-form column names.
const (
	ColumnDate    = "date"
	ColumnEntity  = "entity"
	ColumnBadges  = "badges"
	ColumnPoints  = "points"
	ColumnScore   = "score"
	ColumnRank    = "rank"
	ColumnUpdated = "updated"
	ColumnImage   = "image"
)

// LongHeader is the header of a long-form export without images.
var LongHeader = []string{ColumnDate, ColumnEntity, ColumnBadges, ColumnPoints, ColumnScore, ColumnRank, ColumnUpdated}

// Sheet is a header plus rows of typed cells (string, int, float64, bool).
type Sheet struct {
	Header []string
	Rows   [][]any
}

// LongSheet lays out timeline rows one per line. An image column is added
// when images is non-empty.
func LongSheet(rows []timeseries.Row, images map[string]string) Sheet {
	header := append([]string(nil), LongHeader...)
	withImages := len(images) > 0
	if withImages {
		header = append(header, ColumnImage)
	}
	s := Sheet{Header: header, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		line := []any{formatDate(r.Date), r.Entity, r.Badges, r.Points, r.Score, r.Rank, r.Updated}
		if withImages {
			line = append(line, images[r.Entity])
		}
		s.Rows = append(s.Rows, line)
	}
	return s
}

// WideSheet lays out a pivoted table, one date per line. When the table
// carries images they form the first line, labelled "image".
func WideSheet(t timeseries.Table) Sheet {
	header := make([]string, 0, len(t.Entities)+1)
	header = append(header, ColumnDate)
	header = append(header, t.Entities...)

	s := Sheet{Header: header, Rows: make([][]any, 0, len(t.Rows)+1)}
	if t.Images != nil {
		line := make([]any, 0, len(header))
		line = append(line, ColumnImage)
		for _, img := range t.Images {
			line = append(line, img)
		}
		s.Rows = append(s.Rows, line)
	}
	integral := t.Field != timeseries.FieldScore
	for _, r := range t.Rows {
		line := make([]any, 0, len(header))
		line = append(line, formatDate(r.Date))
		for _, v := range r.Values {
			if integral {
				line = append(line, int(v))
			} else {
				line = append(line, v)
			}
		}
		s.Rows = append(s.Rows, line)
	}
	return s
}

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		// Whole scores keep one decimal, e.g. "2.0".
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'f', 1, 64)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
