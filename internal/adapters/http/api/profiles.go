package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/okian/badgeboard/internal/domain/types"
)

// ProfileDependencies defines the interface for trainer and deck pages.
type ProfileDependencies interface {
	Trainers(ctx context.Context) ([]types.Option, error)
	Decks(ctx context.Context) ([]types.Option, error)
	TrainerProfile(ctx context.Context, name string) (types.Profile, error)
	DeckProfile(ctx context.Context, id string) (types.Profile, error)
}

// ProfilesHandler handles trainer and deck requests.
type ProfilesHandler struct {
	deps ProfileDependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps ProfileDependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

// HandleListTrainers handles GET /trainers.
func (h *ProfilesHandler) HandleListTrainers(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_trainers"
	out, err := h.deps.Trainers(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleListDecks handles GET /decks.
func (h *ProfilesHandler) HandleListDecks(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_decks"
	out, err := h.deps.Decks(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetTrainer handles GET /trainers/{name}.
func (h *ProfilesHandler) HandleGetTrainer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_trainer"
	name, err := pathParam(r, "name")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	profile, err := h.deps.TrainerProfile(r.Context(), name)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleGetDeck handles GET /decks/{id}.
func (h *ProfilesHandler) HandleGetDeck(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_deck"
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	profile, err := h.deps.DeckProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func pathParam(r *http.Request, name string) (string, error) {
	return url.PathUnescape(chi.URLParam(r, name))
}
