package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"novenantes/internal/platform/middleware"
	"novenantes/pkg/platform/audit"
	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/sentinel"
	"novenantes/pkg/requestcontext"
)

// Default credentials created on first-time setup. The password must be
// changed after the first login.
const (
	defaultAdminUser     = "admin"
	defaultAdminPassword = "admin123"
)

// Service owns accounts and login sessions. It implements
// middleware.SessionValidator.
type Service struct {
	store      Store
	sessions   SessionStore
	logger     *slog.Logger
	audit      audit.Publisher
	signingKey []byte
	sessionTTL time.Duration
}

func NewService(store Store, sessions SessionStore, signingKey []byte, sessionTTL time.Duration, logger *slog.Logger, publisher audit.Publisher) *Service {
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	return &Service{
		store:      store,
		sessions:   sessions,
		logger:     logger,
		audit:      publisher,
		signingKey: signingKey,
		sessionTTL: sessionTTL,
	}
}

// EnsureDefaultAdmin creates the bootstrap admin account when the user table
// is empty, mirroring the legacy first-time setup.
func (s *Service) EnsureDefaultAdmin(ctx context.Context) error {
	n, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default password: %w", err)
	}
	u := &User{Username: defaultAdminUser, Role: RoleAdmin}
	u.SetPasswordHash(string(hash))
	id, err := s.store.Create(ctx, u)
	if errors.Is(err, sentinel.ErrConflict) {
		// Another instance won the race.
		return nil
	}
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	s.logger.WarnContext(ctx, "default admin account created, change its password",
		"user_id", id, "username", defaultAdminUser)
	return nil
}

type sessionTokenClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult carries the signed token and the account it belongs to.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Login verifies credentials and opens a session. Unknown username and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

	u, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Burn a comparison anyway to keep timing flat.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B4POXMe/Neb4AJY3ZQ9p6rT1Gsxa"),
			[]byte(password))
		s.emitLogin(ctx, audit.ActionLoginFailed, 0, username, "unknown user")
		return nil, invalid
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash()), []byte(password)) != nil {
		s.emitLogin(ctx, audit.ActionLoginFailed, u.ID, username, "wrong password")
		return nil, invalid
	}

	now := requestcontext.Now(ctx)
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Device:    describeDevice(requestcontext.UserAgent(ctx)),
		ClientIP:  requestcontext.ClientIP(ctx),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}

	token, err := s.signToken(u, sess)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}

	s.emitLogin(ctx, audit.ActionLoginSucceeded, u.ID, username, "")
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", u.ID, "session_id", sess.ID, "device", sess.Device)
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: u}, nil
}

func (s *Service) signToken(u *User, sess Session) (string, error) {
	claims := sessionTokenClaims{
		SessionID: sess.ID,
		Role:      u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// ValidateSession implements middleware.SessionValidator: the JWT must verify
// and the session must still be live in the store.
func (s *Service) ValidateSession(ctx context.Context, token string) (*middleware.SessionClaims, error) {
	var claims sessionTokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", claims.SessionID, err)
	}

	var userID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
		return nil, fmt.Errorf("bad subject claim: %w", err)
	}
	if sess.UserID != userID {
		return nil, errors.New("session does not belong to token subject")
	}
	return &middleware.SessionClaims{
		UserID:    userID,
		SessionID: claims.SessionID,
		Role:      claims.Role,
	}, nil
}

// Logout revokes the session behind the token immediately.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionSessionRevoked,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   sessionID,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get user")
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, username, password, role string, fraternoID *int64) (*User, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if !validRole(role) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u := &User{Username: username, Role: role, FraternoID: fraternoID}
	u.SetPasswordHash(string(hash))

	id, err := s.store.Create(ctx, u)
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.Newf(dErrors.CodeConflict, "username %s already exists", username)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionUserCreated,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   username,
		RequestID: requestcontext.RequestID(ctx),
	})
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, u *User) (*User, error) {
	if u.Username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if !validRole(u.Role) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", u.Role)
	}
	err := s.store.Update(ctx, u)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	case errors.Is(err, sentinel.ErrConflict):
		return nil, dErrors.Newf(dErrors.CodeConflict, "username %s already exists", u.Username)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	return s.Get(ctx, u.ID)
}

// ChangePassword rehashes and revokes every other session of the account.
func (s *Service) ChangePassword(ctx context.Context, id int64, password string) error {
	if len(password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	err = s.store.UpdatePassword(ctx, id, string(hash))
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}
	if err := s.sessions.DeleteByUser(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions after password change",
			"user_id", id, "error", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if requestcontext.UserID(ctx) == id {
		return dErrors.New(dErrors.CodeConflict, "cannot delete your own account")
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
	}
	if err := s.sessions.DeleteByUser(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions of deleted user",
			"user_id", id, "error", err)
	}
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionUserDeleted,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   fmt.Sprintf("%d", id),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

func (s *Service) emitLogin(ctx context.Context, action audit.Action, userID int64, username, reason string) {
	s.audit.Emit(ctx, audit.Event{
		Action:    action,
		ActorID:   userID,
		Subject:   username,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
}

// describeDevice turns a raw User-Agent into a short human-readable label for
// the session list.
func describeDevice(raw string) string {
	if raw == "" {
		return "unknown device"
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	if browser == "" {
		return "unknown device"
	}
	label := browser
	if version != "" {
		label += " " + version
	}
	if os := ua.OS(); os != "" {
		label += " on " + os
	}
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}
