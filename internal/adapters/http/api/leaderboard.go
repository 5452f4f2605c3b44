package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/badgeboard/internal/app"
	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/period"
	"github.com/okian/badgeboard/internal/domain/ranking"
	"github.com/okian/badgeboard/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, q service.Query) (types.Leaderboard, error)
	Periods(ctx context.Context, kind period.Kind) ([]types.PeriodView, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles
// GET /leaderboard?group_by=&period=&date=&season=&limit= requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	q := r.URL.Query()

	groupBy, err := ranking.ParseGroupBy(q.Get("group_by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	kind, err := period.ParseKind(q.Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	query := service.Query{GroupBy: groupBy, Kind: kind}

	if s := strings.TrimSpace(q.Get("date")); s != "" {
		anchor, err := model.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		query.Anchor = anchor
	}
	if s := strings.TrimSpace(q.Get("season")); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil || year < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		query.Season = year
	}
	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		query.Limit = n
	}

	board, err := h.deps.Leaderboard(r.Context(), query)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HandleGetPeriods handles GET /periods?kind= requests.
func (h *LeaderboardHandler) HandleGetPeriods(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_periods"
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		raw = string(period.KindSeason)
	}
	kind, err := period.ParseKind(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	periods, err := h.deps.Periods(r.Context(), kind)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}
