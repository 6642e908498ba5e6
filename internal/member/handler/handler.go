package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"novenantes/internal/member"
	"novenantes/internal/platform/middleware"
	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/httputil"
	"novenantes/pkg/requestcontext"
)

// maxPhotoSize bounds photo uploads.
const maxPhotoSize = 5 << 20

// Service is the member operations surface the handler needs.
type Service interface {
	List(ctx context.Context, filter member.Filter) ([]member.Member, error)
	Get(ctx context.Context, id int64) (*member.Member, error)
	Create(ctx context.Context, m *member.Member) (*member.Member, error)
	Update(ctx context.Context, m *member.Member) (*member.Member, error)
	Delete(ctx context.Context, id int64) error
	SavePhoto(ctx context.Context, id int64, filename string, content io.Reader) (string, error)
}

type Handler struct {
	logger  *slog.Logger
	members Service
	auth    middleware.SessionValidator
}

func New(members Service, auth middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, members: members, auth: auth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/fraternos", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))

		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/foto", h.handleUploadPhoto)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := member.Filter{
		Status: q.Get("estado"),
		Search: q.Get("q"),
	}
	if raw := q.Get("bloque_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid bloque_id"))
			return
		}
		filter.BlockID = &id
	}

	members, err := h.members.List(ctx, filter)
	if err != nil {
		h.logError(ctx, "failed to list members", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	m, err := h.members.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

type memberRequest struct {
	CI         string  `json:"ci"`
	Name       string  `json:"nombre"`
	BirthDate  string  `json:"fechanacimiento"`
	Phone      string  `json:"celular"`
	Gender     string  `json:"genero"`
	BlockID    *int64  `json:"bloque_id"`
	ShirtSize  string  `json:"talla_polera"`
	PantsSize  string  `json:"talla_pantalon"`
	ShoeSize   string  `json:"talla_zapato"`
	AmountPaid float64 `json:"monto_pagado"`
	Status     string  `json:"estado"`
}

func (req *memberRequest) Validate() error {
	if req.CI == "" {
		return dErrors.New(dErrors.CodeValidation, "ci is required")
	}
	if req.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "nombre is required")
	}
	if req.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", req.BirthDate); err != nil {
			return dErrors.New(dErrors.CodeValidation, "fechanacimiento must be YYYY-MM-DD")
		}
	}
	return nil
}

func (req *memberRequest) toModel(id int64) *member.Member {
	m := &member.Member{
		ID:         id,
		CI:         req.CI,
		Name:       req.Name,
		Phone:      req.Phone,
		Gender:     req.Gender,
		BlockID:    req.BlockID,
		ShirtSize:  req.ShirtSize,
		PantsSize:  req.PantsSize,
		ShoeSize:   req.ShoeSize,
		AmountPaid: req.AmountPaid,
		Status:     req.Status,
	}
	if req.BirthDate != "" {
		t, _ := time.Parse("2006-01-02", req.BirthDate)
		m.BirthDate = &t
	}
	return m
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[memberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	created, err := h.members.Create(ctx, req.toModel(0))
	if err != nil {
		h.logError(ctx, "failed to create member", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[memberRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.members.Update(ctx, req.toModel(id))
	if err != nil {
		h.logError(ctx, "failed to update member", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.members.Delete(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("foto")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "foto file is required"))
		return
	}
	defer file.Close()

	path, err := h.members.SavePhoto(ctx, id, header.Filename, file)
	if err != nil {
		h.logError(ctx, "failed to upload photo", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"foto": path})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
