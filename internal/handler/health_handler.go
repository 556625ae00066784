package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"railroad-api/internal/model"
	"railroad-api/pkg/apierror"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, model.MessageData{Message: "Welcome to the railroad booking API"}, nil)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Health(ctx); err != nil {
			slog.Warn("health check failed", "error", err.Error())
			writeError(w, apierror.New("SERVICE_UNAVAILABLE", "database unreachable", "", http.StatusServiceUnavailable))
			return
		}
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}
