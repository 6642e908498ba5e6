// Package dashboard serves the landing page counters.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"novenantes/internal/platform/middleware"
	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/httputil"
	"novenantes/pkg/requestcontext"
)

// Stats is everything the dashboard renders in one round trip.
type Stats struct {
	TotalMembers    int          `json:"total_fraternos"`
	ActiveMembers   int          `json:"fraternos_activos"`
	EnrolledMembers int          `json:"fraternos_con_huella"`
	TotalBlocks     int          `json:"total_bloques"`
	UpcomingEvents  int          `json:"eventos_proximos"`
	PerBlock        []BlockCount `json:"por_bloque"`
	PerGender       []GenderTile `json:"por_genero"`
}

type BlockCount struct {
	BlockID int64  `json:"bloque_id"`
	Name    string `json:"nombre_bloque"`
	Count   int    `json:"cantidad"`
}

type GenderTile struct {
	Gender string `json:"genero"`
	Count  int    `json:"cantidad"`
}

// Store computes the dashboard counters.
type Store interface {
	Stats(ctx context.Context) (*Stats, error)
}

type Handler struct {
	logger *slog.Logger
	store  Store
	auth   middleware.SessionValidator
}

func NewHandler(store Store, auth middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, store: store, auth: auth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))
		r.Get("/", h.handleStats)
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute dashboard stats",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to compute stats"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
