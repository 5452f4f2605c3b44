package api

import (
	"maps"
	"net/http"

	"github.com/okian/badgeboard/internal/domain/dedupe"
)

// StatsProvider reports service counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler merges service counters with the handler-side idempotency
// key count.
type StatsHandler struct {
	statsProvider StatsProvider
	keys          dedupe.Deduper
}

// NewStatsHandler creates a new stats handler. keys may be nil.
func NewStatsHandler(statsProvider StatsProvider, keys dedupe.Deduper) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, keys: keys}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]interface{})
	if h.statsProvider != nil {
		maps.Copy(out, h.statsProvider.GetStats())
	}
	if h.keys != nil {
		out["idempotencyKeys"] = h.keys.Size()
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, out)
}
