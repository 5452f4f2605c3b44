package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	service "github.com/okian/badgeboard/internal/app"
	"github.com/okian/badgeboard/internal/domain/dedupe"
	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/internal/domain/types"
	"github.com/okian/badgeboard/pkg/logger"
)

// BadgeDependencies defines the interface for badge reads and writes.
type BadgeDependencies interface {
	Badges(ctx context.Context, f service.Filter) ([]types.Badge, error)
	FormOptions(ctx context.Context) (types.FormOptions, error)
	Append(ctx context.Context, b model.Badge) error
}

// BadgesHandler handles the badge log endpoints.
type BadgesHandler struct {
	deps        BadgeDependencies
	adminToken  string
	limiter     *rate.Limiter
	now         func() time.Time
	logger      logger.Logger
	maxBodySize int64
	keys        dedupe.Deduper
	// keyed serialises submissions carrying an idempotency key, so a retry
	// sees the outcome of an in-flight append instead of its pending key.
	keyed       sync.Mutex
}

// IdempotencyKeyHeader lets clients retry POST /badges safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// NewBadgesHandler creates a new badges handler.
func NewBadgesHandler(deps BadgeDependencies, o options) *BadgesHandler {
	return &BadgesHandler{
		deps:        deps,
		adminToken:  o.adminToken,
		limiter:     newLimiter(o.ratePerMin, o.burst),
		now:         o.now,
		logger:      o.logger,
		maxBodySize: o.maxBodySize,
		keys:        o.deduper,
	}
}

// badgeRequest mirrors the JSON schema for POST /badges.
type badgeRequest struct {
	Trainer    string          `json:"trainer"`
	Pronouns   string          `json:"pronouns"`
	Deck       json.RawMessage `json:"deck"`
	Store      string          `json:"store"`
	Date       string          `json:"date"`
	Tier       string          `json:"tier"`
	Format     string          `json:"format"`
	Color      string          `json:"color"`
	Background string          `json:"background"`
}

type deckRequest struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Icons []string `json:"icons"`
}

// deck builds the deck of the request. A bare string is a display name.
func (b badgeRequest) deck() (*model.Deck, error) {
	raw := bytes.TrimSpace(b.Deck)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, err
		}
		return model.NewDeck(name, nil), nil
	}
	var d deckRequest
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	deck := model.NewDeck(d.Name, d.Icons)
	id := strings.TrimSpace(d.ID)
	switch {
	case deck == nil && id == "":
		return nil, nil
	case deck == nil:
		return &model.Deck{ID: id, Name: id, Icons: d.Icons}, nil
	case id != "":
		deck.ID = id
	}
	return deck, nil
}

// toBadge converts the request into a record dated relative to now.
func (b badgeRequest) toBadge(now time.Time) (model.Badge, error) {
	date, err := parseBadgeDate(b.Date, now)
	if err != nil {
		return model.Badge{}, err
	}
	deck, err := b.deck()
	if err != nil {
		return model.Badge{}, errors.Join(ErrBadRequest, err)
	}
	return model.Badge{
		Trainer:    strings.TrimSpace(b.Trainer),
		Pronouns:   strings.TrimSpace(b.Pronouns),
		Deck:       deck,
		Store:      strings.TrimSpace(b.Store),
		Date:       date,
		Tier:       strings.ToLower(strings.TrimSpace(b.Tier)),
		Format:     strings.TrimSpace(b.Format),
		Color:      b.Color,
		Background: strings.TrimSpace(b.Background),
	}, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Trainer   string `json:"trainer,omitempty"`
	Date      string `json:"date,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// HandleListBadges handles GET /badges?trainer=&deck= requests.
func (h *BadgesHandler) HandleListBadges(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_badges"
	q := r.URL.Query()
	badges, err := h.deps.Badges(r.Context(), service.Filter{
		Trainer: q.Get("trainer"),
		DeckID:  q.Get("deck"),
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

// HandleOptions handles GET /badges/options, the vocabularies of the
// badge form.
func (h *BadgesHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	const op = "api.badge_options"
	opts, err := h.deps.FormOptions(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandlePostBadge handles POST /badges requests.
func (h *BadgesHandler) HandlePostBadge(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_badge"

	if err := authorize(r, h.adminToken); err != nil {
		if errors.Is(err, ErrForbidden) {
			writeError(w, http.StatusForbidden, "forbidden", NewKind(op, err))
			return
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="badgeboard"`)
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, err))
		return
	}
	if !h.limiter.Allow() {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ErrRateLimited))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateBadgeDocument(doc); err != nil {
		writeError(w, http.StatusBadRequest, "schema_violation", Wrap(op, err))
		return
	}
	var req badgeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	badge, err := req.toBadge(h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key != "" {
		h.keyed.Lock()
		defer h.keyed.Unlock()
		if h.keys.SeenAndRecord(r.Context(), key) {
			writeJSON(w, http.StatusOK, ackResponse{
				Status:    "duplicate",
				Trainer:   badge.Trainer,
				Date:      badge.Date.Format(model.DateLayout),
				Duplicate: true,
			})
			return
		}
	}

	if err := h.deps.Append(r.Context(), badge); err != nil {
		if key != "" {
			h.keys.Unrecord(r.Context(), key)
		}
		if !errors.Is(err, service.ErrInvalidBadge) && !errors.Is(err, service.ErrReadOnly) {
			h.logger.Error(r.Context(), "append failed",
				logger.String("request_id", RequestIDFromContext(r.Context())),
				logger.Error(err),
			)
		}
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{
		Status:  "recorded",
		Trainer: badge.Trainer,
		Date:    badge.Date.Format(model.DateLayout),
	})
}
