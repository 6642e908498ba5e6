package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"novenantes/internal/platform/middleware"
	"novenantes/internal/report"
	"novenantes/pkg/platform/httputil"
	"novenantes/pkg/requestcontext"
)

type Service interface {
	General(ctx context.Context) (*report.GeneralStats, error)
	ByGender(ctx context.Context) ([]report.GenderCount, error)
	Sizes(ctx context.Context) ([]report.SizeCount, error)
	WithoutFingerprint(ctx context.Context) ([]report.MemberRow, error)
	ExportMembersXLSX(ctx context.Context) (*excelize.File, error)
}

type Handler struct {
	logger  *slog.Logger
	reports Service
	auth    middleware.SessionValidator
}

func New(reports Service, auth middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, reports: reports, auth: auth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/reportes", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))

		r.Get("/general", h.handleGeneral)
		r.Get("/genero", h.handleByGender)
		r.Get("/tallas", h.handleSizes)
		r.Get("/sin-huella", h.handleWithoutFingerprint)
		r.Get("/fraternos.xlsx", h.handleExportMembers)
	})
}

func (h *Handler) handleGeneral(w http.ResponseWriter, r *http.Request) {
	st, err := h.reports.General(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleByGender(w http.ResponseWriter, r *http.Request) {
	out, err := h.reports.ByGender(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSizes(w http.ResponseWriter, r *http.Request) {
	out, err := h.reports.Sizes(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleWithoutFingerprint(w http.ResponseWriter, r *http.Request) {
	out, err := h.reports.WithoutFingerprint(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExportMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := h.reports.ExportMembersXLSX(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer f.Close()

	name := "fraternos_" + time.Now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := f.Write(w); err != nil {
		h.logger.ErrorContext(ctx, "failed to stream workbook",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		// Headers already sent; nothing more to do.
	}
}
