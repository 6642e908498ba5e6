package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"novenantes/internal/platform/middleware"
	"novenantes/internal/user"
	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/httputil"
	"novenantes/pkg/requestcontext"
)

// Service is the account/session surface the routes need.
type Service interface {
	middleware.SessionValidator
	Login(ctx context.Context, username, password string) (*user.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]user.User, error)
	Get(ctx context.Context, id int64) (*user.User, error)
	Create(ctx context.Context, username, password, role string, fraternoID *int64) (*user.User, error)
	Update(ctx context.Context, u *user.User) (*user.User, error)
	ChangePassword(ctx context.Context, id int64, password string) error
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	logger *slog.Logger
	users  Service
}

func New(users Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, users: users}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.ClientMetadata).Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.users, h.logger))
			r.Post("/logout", h.handleLogout)
			r.Get("/me", h.handleMe)
		})
	})

	r.Route("/api/usuarios", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.users, h.logger))
		r.Use(middleware.RequireAdmin(h.logger))

		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Put("/{id}/password", h.handleChangePassword)
		r.Delete("/{id}", h.handleDelete)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *loginRequest) Validate() error {
	if req.Username == "" || req.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "username and password are required")
	}
	return nil
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	result, err := h.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, result.User)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.Logout(ctx, requestcontext.SessionID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.users.Get(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

type createUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	FraternoID *int64 `json:"fraterno_id"`
}

func (req *createUserRequest) Validate() error {
	if req.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if req.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if req.Role == "" {
		req.Role = user.RoleFraterno
	}
	return nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[createUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	created, err := h.users.Create(ctx, req.Username, req.Password, req.Role, req.FraternoID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

type updateUserRequest struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	FraternoID *int64 `json:"fraterno_id"`
}

func (req *updateUserRequest) Validate() error {
	if req.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if req.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role is required")
	}
	return nil
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.users.Update(ctx, &user.User{
		ID:         id,
		Username:   req.Username,
		Role:       req.Role,
		FraternoID: req.FraternoID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

func (req *changePasswordRequest) Validate() error {
	if req.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[changePasswordRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.users.ChangePassword(ctx, id, req.Password); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return 0, false
	}
	return id, true
}
