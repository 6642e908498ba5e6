package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"novenantes/internal/block"
	"novenantes/internal/platform/middleware"
	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/httputil"
	"novenantes/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context, blockType string) ([]block.Block, error)
	Get(ctx context.Context, id int64) (*block.Detail, error)
	Create(ctx context.Context, b *block.Block) (*block.Block, error)
	Update(ctx context.Context, b *block.Block) (*block.Block, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	logger *slog.Logger
	blocks Service
	auth   middleware.SessionValidator
}

func New(blocks Service, auth middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, blocks: blocks, auth: auth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/bloques", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))

		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.blocks.List(r.Context(), r.URL.Query().Get("tipo"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, blocks)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.blocks.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

type blockRequest struct {
	Name          string `json:"nombre_bloque"`
	Type          string `json:"tipobloque"`
	Status        string `json:"estado"`
	ResponsibleID *int64 `json:"fraterno_id"`
}

func (req *blockRequest) Validate() error {
	if req.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "nombre_bloque is required")
	}
	if req.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "tipobloque is required")
	}
	return nil
}

func (req *blockRequest) toModel(id int64) *block.Block {
	return &block.Block{
		ID:            id,
		Name:          req.Name,
		Type:          req.Type,
		Status:        req.Status,
		ResponsibleID: req.ResponsibleID,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[blockRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	created, err := h.blocks.Create(ctx, req.toModel(0))
	if err != nil {
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
	req, ok := httputil.DecodeAndPrepare[blockRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.blocks.Update(ctx, req.toModel(id))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.blocks.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid block id"))
		return 0, false
	}
	return id, true
}
