// Package handler exposes the fingerprint workflows over HTTP. Capture is
// driven by the operator's browser, so every route sits behind the session
// cookie auth middleware.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"novenantes/internal/biometric"
	"novenantes/internal/biometric/capture"
	"novenantes/internal/biometric/service"
	"novenantes/internal/platform/middleware"
	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/httputil"
	"novenantes/pkg/platform/sentinel"
	"novenantes/pkg/requestcontext"
)

// Workflow is the orchestrator surface the handler drives.
type Workflow interface {
	Enroll(ctx context.Context, memberID int64) (biometric.Status, error)
	Identify(ctx context.Context) (biometric.Status, error)
	RemoveTemplate(ctx context.Context, memberID int64) (biometric.Status, error)
	State() service.WorkflowState
}

// CaptureSession is the slice of capture.Session the routes need.
type CaptureSession interface {
	Connect(ctx context.Context) error
	Disconnect() error
	StartCapture(ctx context.Context) (biometric.Sample, error)
	CancelCapture()
	Clear()
	State() capture.State
}

// TemplateLister backs the enrolled-members listing.
type TemplateLister interface {
	ListAll(ctx context.Context) ([]biometric.Candidate, error)
}

type Handler struct {
	logger    *slog.Logger
	workflow  Workflow
	session   CaptureSession
	templates TemplateLister
	auth      middleware.SessionValidator
}

func New(workflow Workflow, session CaptureSession, templates TemplateLister, auth middleware.SessionValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		workflow:  workflow,
		session:   session,
		templates: templates,
		auth:      auth,
	}
}

// Register mounts the biometric routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/biometric", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))

		r.Get("/session", h.handleSessionState)
		r.Post("/session/connect", h.handleConnect)
		r.Post("/session/disconnect", h.handleDisconnect)
		r.Post("/session/capture", h.handleCapture)
		r.Post("/session/cancel", h.handleCancelCapture)
		r.Post("/session/clear", h.handleClearSample)

		r.Post("/enroll", h.handleEnroll)
		r.Post("/identify", h.handleIdentify)
		r.Get("/templates", h.handleListTemplates)
		r.Delete("/templates/{memberID}", h.handleRemoveTemplate)
	})
}

type sessionStateResponse struct {
	CaptureState  capture.State         `json:"capture_state"`
	WorkflowState service.WorkflowState `json:"workflow_state"`
}

func (h *Handler) handleSessionState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, sessionStateResponse{
		CaptureState:  h.session.State(),
		WorkflowState: h.workflow.State(),
	})
}

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.session.Connect(ctx); err != nil {
		h.logger.WarnContext(ctx, "reader connect failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, translate(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionStateResponse{
		CaptureState:  h.session.State(),
		WorkflowState: h.workflow.State(),
	})
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Disconnect(); err != nil {
		httputil.WriteError(w, translate(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type captureResponse struct {
	Quality    int    `json:"quality"`
	Format     string `json:"format"`
	CapturedAt string `json:"captured_at"`
}

// handleCapture blocks until the reader delivers a sample, the scan times
// out, or the capture is cancelled. The image itself never leaves the server.
func (h *Handler) handleCapture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sample, err := h.session.StartCapture(ctx)
	if err != nil {
		if !errors.Is(err, biometric.ErrCaptureCancelled) {
			h.logger.WarnContext(ctx, "capture failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, translate(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, captureResponse{
		Quality:    sample.Quality,
		Format:     string(sample.Format),
		CapturedAt: sample.CapturedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *Handler) handleCancelCapture(w http.ResponseWriter, r *http.Request) {
	h.session.CancelCapture()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearSample(w http.ResponseWriter, r *http.Request) {
	h.session.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[enrollRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	status, err := h.workflow.Enroll(ctx, req.MemberID)
	if err != nil {
		h.logger.WarnContext(ctx, "enrollment failed",
			"request_id", requestID,
			"member_id", req.MemberID,
			"error", err,
		)
		httputil.WriteError(w, translate(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleIdentify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.workflow.Identify(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "identification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, translate(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

type enrolledMemberResponse struct {
	MemberID int64 `json:"member_id"`
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidates, err := h.templates.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list templates",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list templates"))
		return
	}
	out := make([]enrolledMemberResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, enrolledMemberResponse{MemberID: c.MemberID})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleRemoveTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := strconv.ParseInt(chi.URLParam(r, "memberID"), 10, 64)
	if err != nil || memberID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return
	}

	status, werr := h.workflow.RemoveTemplate(ctx, memberID)
	if werr != nil {
		httputil.WriteError(w, translate(werr))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// translate maps workflow taxonomy errors and store sentinels onto domain
// error codes. Unknown errors stay internal.
func translate(err error) error {
	switch {
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	case errors.Is(err, biometric.ErrBusy):
		return dErrors.Wrap(err, dErrors.CodeBusy, "another workflow is in progress")
	case errors.Is(err, biometric.ErrNoSample):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "capture a fingerprint first")
	case errors.Is(err, biometric.ErrCaptureCancelled):
		return dErrors.Wrap(err, dErrors.CodeConflict, "capture cancelled")
	case errors.Is(err, biometric.ErrDeviceUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "capture device unavailable")
	case errors.Is(err, biometric.ErrExtractionFailed):
		return dErrors.Wrap(err, dErrors.CodeValidation, "sample quality rejected, recapture and try again")
	case errors.Is(err, biometric.ErrServiceUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "matching service unavailable")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "member not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "operation not valid in current state")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "biometric operation failed")
	}
}
