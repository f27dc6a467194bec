package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/checkman123/OpenTelemetry/internal/adapters/cache"
	"github.com/checkman123/OpenTelemetry/internal/logging"
)

type observationSource interface {
	Observations(ctx context.Context, entityID string) ([]cache.Observation, error)
}

type ObservationHandlers struct {
	svc observationSource
}

func NewObservationHandlers(svc observationSource) *ObservationHandlers {
	return &ObservationHandlers{svc: svc}
}

func (h *ObservationHandlers) GetHandler(w http.ResponseWriter, r *http.Request) {
	parsed, err := uuid.Parse(chi.URLParam(r, "entityId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "entityId must be a uuid")
		return
	}
	// Observations are keyed by the canonical lower-case form.
	id := parsed.String()

	ctx := r.Context()
	obs, err := h.svc.Observations(ctx, id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no observations for entity")
			return
		}
		logging.LogErrorCtx(ctx, "Internal server error while fetching observations", err, logrus.Fields{"entity_id": id})
		writeError(w, http.StatusInternalServerError, "observation log unavailable")
		return
	}
	writeJSON(w, http.StatusOK, obs)
}
