package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"novenantes/internal/event"
	"novenantes/internal/platform/middleware"
	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/httputil"
	"novenantes/pkg/requestcontext"
)

type Service interface {
	ListEvents(ctx context.Context) ([]event.Event, error)
	GetEvent(ctx context.Context, id int64) (*event.Event, error)
	CreateEvent(ctx context.Context, e *event.Event) (*event.Event, error)
	UpdateEvent(ctx context.Context, e *event.Event) (*event.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	ListTypes(ctx context.Context) ([]event.EventType, error)
	ListRegistrations(ctx context.Context, eventID *int64) ([]event.Registration, error)
	Register(ctx context.Context, memberID, eventID int64) (int64, error)
	Unregister(ctx context.Context, id int64) error
}

type Handler struct {
	logger *slog.Logger
	events Service
	auth   middleware.SessionValidator
}

func New(events Service, auth middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, events: events, auth: auth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/eventos", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))

		r.Get("/", h.handleListEvents)
		r.Post("/", h.handleCreateEvent)
		r.Get("/tipos", h.handleListTypes)
		r.Get("/{id}", h.handleGetEvent)
		r.Put("/{id}", h.handleUpdateEvent)
		r.Delete("/{id}", h.handleDeleteEvent)
	})
	r.Route("/api/inscripciones", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))

		r.Get("/", h.handleListRegistrations)
		r.Post("/", h.handleRegister)
		r.Delete("/{id}", h.handleUnregister)
	})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

type eventRequest struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Date        string `json:"fecha"`
	Place       string `json:"lugar"`
	TypeID      *int64 `json:"tipo_evento_id"`
	Status      string `json:"estado"`
}

func (req *eventRequest) Validate() error {
	if req.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "nombre is required")
	}
	if req.Date == "" {
		return dErrors.New(dErrors.CodeValidation, "fecha is required")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return dErrors.New(dErrors.CodeValidation, "fecha must be YYYY-MM-DD")
	}
	return nil
}

func (req *eventRequest) toModel(id int64) *event.Event {
	date, _ := time.Parse("2006-01-02", req.Date)
	return &event.Event{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Date:        date,
		Place:       req.Place,
		TypeID:      req.TypeID,
		Status:      req.Status,
	}
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[eventRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	created, err := h.events.CreateEvent(ctx, req.toModel(0))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[eventRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.events.UpdateEvent(ctx, req.toModel(id))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.events.DeleteEvent(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.events.ListTypes(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, types)
}

func (h *Handler) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	var eventID *int64
	if raw := r.URL.Query().Get("evento_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid evento_id"))
			return
		}
		eventID = &id
	}
	regs, err := h.events.ListRegistrations(r.Context(), eventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, regs)
}

type registrationRequest struct {
	MemberID int64 `json:"fraterno_id"`
	EventID  int64 `json:"evento_id"`
}

func (req *registrationRequest) Validate() error {
	if req.MemberID <= 0 || req.EventID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "fraterno_id and evento_id are required")
	}
	return nil
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[registrationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id, err := h.events.Register(ctx, req.MemberID, req.EventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleUnregister(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.events.Unregister(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid id"))
		return 0, false
	}
	return id, true
}
