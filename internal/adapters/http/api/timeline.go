package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/badgeboard/internal/adapters/export"
	service "github.com/okian/badgeboard/internal/app"
	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/timeseries"
	"github.com/okian/badgeboard/pkg/metrics"
)

// TimelineDependencies defines the interface for timeline replays.
type TimelineDependencies interface {
	Timeline(ctx context.Context, q service.TimelineQuery) (service.Timeline, error)
}

// TimelineHandler handles timeline exports.
type TimelineHandler struct {
	deps TimelineDependencies
}

// NewTimelineHandler creates a new timeline handler.
func NewTimelineHandler(deps TimelineDependencies) *TimelineHandler {
	return &TimelineHandler{deps: deps}
}

type timelineRow struct {
	Date    string  `json:"date"`
	Entity  string  `json:"entity"`
	Badges  int     `json:"badges"`
	Points  int     `json:"points"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
	Updated bool    `json:"updated"`
}

type tableRow struct {
	Date   string    `json:"date"`
	Values []float64 `json:"values"`
}

type timelineResponse struct {
	GroupBy  string            `json:"group_by"`
	Start    string            `json:"start,omitempty"`
	End      string            `json:"end,omitempty"`
	Field    string            `json:"field,omitempty"`
	Entities []string          `json:"entities,omitempty"`
	Rows     any               `json:"rows"`
	Images   map[string]string `json:"images,omitempty"`
}

// parseTimelineQuery reads group_by, season, start, end and value.
func parseTimelineQuery(q url.Values) (service.TimelineQuery, error) {
	var out service.TimelineQuery
	g, err := ranking.ParseGroupBy(q.Get("group_by"))
	if err != nil {
		return out, err
	}
	out.GroupBy = g
	if s := strings.TrimSpace(q.Get("season")); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil || year < 1 {
			return out, fmt.Errorf("invalid season %q", s)
		}
		out.Season = year
	}
	if out.Start, err = optionalDate(q.Get("start")); err != nil {
		return out, err
	}
	if out.End, err = optionalDate(q.Get("end")); err != nil {
		return out, err
	}
	if out.Field, err = timeseries.ParseField(q.Get("value")); err != nil {
		return out, err
	}
	return out, nil
}

func optionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(s)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

// HandleGetTimeline handles
// GET /timeline?group_by=&season=&start=&end=&value=&cumulative=&format= requests.
func (h *TimelineHandler) HandleGetTimeline(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_timeline"
	q := r.URL.Query()

	query, err := parseTimelineQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	format := export.FormatJSON
	if s := q.Get("format"); s != "" {
		if format, err = export.ParseFormat(s); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	cumulative := false
	if s := q.Get("cumulative"); s != "" {
		if cumulative, err = strconv.ParseBool(s); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	tl, err := h.deps.Timeline(r.Context(), query)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	if format == export.FormatJSON {
		metrics.RecordExport(string(format), len(tl.Rows))
		writeJSON(w, http.StatusOK, timelineJSON(tl, cumulative))
		return
	}

	sheet := export.LongSheet(tl.Rows, tl.Images)
	if cumulative {
		sheet = export.WideSheet(tl.Table)
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, sheet); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrRender, err))
		return
	}
	metrics.RecordExport(string(format), len(sheet.Rows))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="timeline.%s"`, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func timelineJSON(tl service.Timeline, cumulative bool) timelineResponse {
	resp := timelineResponse{
		GroupBy: string(tl.GroupBy),
		Start:   formatBound(tl.Window.Start),
		End:     formatBound(tl.Window.End),
		Images:  tl.Images,
	}
	if resp.GroupBy == "" {
		resp.GroupBy = string(ranking.GroupByTrainer)
	}
	if cumulative {
		rows := make([]tableRow, len(tl.Table.Rows))
		for i, row := range tl.Table.Rows {
			rows[i] = tableRow{Date: row.Date.Format(model.DateLayout), Values: row.Values}
		}
		resp.Field = string(tl.Table.Field)
		resp.Entities = tl.Table.Entities
		resp.Rows = rows
		return resp
	}
	rows := make([]timelineRow, len(tl.Rows))
	for i, row := range tl.Rows {
		rows[i] = timelineRow{
			Date:    row.Date.Format(model.DateLayout),
			Entity:  row.Entity,
			Badges:  row.Badges,
			Points:  row.Points,
			Score:   row.Score,
			Rank:    row.Rank,
			Updated: row.Updated,
		}
	}
	resp.Rows = rows
	return resp
}

// HandleGetChart handles GET /timeline/chart.png with the timeline query
// parameters.
func (h *TimelineHandler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_timeline_chart"
	query, err := parseTimelineQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	tl, err := h.deps.Timeline(r.Context(), query)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		title = fmt.Sprintf("Badge %s by %s", tl.Table.Field, tl.GroupBy)
	}
	var buf bytes.Buffer
	if err := export.RenderChart(&buf, tl.Table, title); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrRender, err))
		return
	}
	metrics.RecordExport("png", len(tl.Table.Rows))
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
