package export

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/okian/badgeboard/internal/domain/timeseries"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart dimensions.
const (
	chartWidth       = 1024
	chartHeight      = 512
	placeholderWidth = 400
	placeholderHeight = 200
	noDataMessage    = "No badges in range"
)

// RenderChart draws one line per entity of a pivoted table as a PNG.
func RenderChart(w io.Writer, t timeseries.Table, title string) error {
	if len(t.Rows) < 2 || len(t.Entities) == 0 {
		return renderNoData(w)
	}

	xs := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		xs[i] = r.Date
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	series := make([]chart.Series, 0, len(t.Entities))
	for col, entity := range t.Entities {
		ys := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			ys[i] = r.Values[col]
			lo, hi = math.Min(lo, ys[i]), math.Max(hi, ys[i])
		}
		series = append(series, chart.TimeSeries{
			Name:    entity,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(col),
				StrokeWidth: 2,
			},
		})
	}
	if hi <= lo {
		hi = lo + 1
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			Name: string(t.Field),
			Range: &chart.ContinuousRange{
				Min:        lo,
				Max:        hi,
				Descending: t.Field == timeseries.FieldRank,
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("%w: %w", ErrChart, err)
	}
	return nil
}

// renderNoData draws a flat baseline with a message. go-chart refuses to
// render without a visible series, so the baseline doubles as that series.
func renderNoData(w io.Writer) error {
	base := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	graph := chart.Chart{
		Width:  placeholderWidth,
		Height: placeholderHeight,
		XAxis:  chart.XAxis{Style: chart.Hidden()},
		YAxis: chart.YAxis{
			Style: chart.Hidden(),
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: []chart.Series{chart.TimeSeries{
			XValues: []time.Time{base, base.AddDate(0, 0, 1)},
			YValues: []float64{0, 0},
			Style:   chart.Style{StrokeColor: drawing.ColorFromHex("dddddd"), StrokeWidth: 1},
		}},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, _ chart.Style) {
				r.SetFontColor(drawing.ColorBlack)
				r.SetFontSize(12.0)
				tb := r.MeasureText(noDataMessage)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(noDataMessage, x, y)
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("%w: %w", ErrChart, err)
	}
	return nil
}
