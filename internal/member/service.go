package member

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/sentinel"
)

// Service validates and coordinates member operations.
type Service struct {
	store      Store
	logger     *slog.Logger
	uploadsDir string
}

func NewService(store Store, logger *slog.Logger, uploadsDir string) *Service {
	return &Service{store: store, logger: logger, uploadsDir: uploadsDir}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Member, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", filter.Status)
	}
	members, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return members, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	m, err := s.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get member")
	}
	return m, nil
}

func (s *Service) Create(ctx context.Context, m *Member) (*Member, error) {
	if err := validate(m); err != nil {
		return nil, err
	}
	if m.Status == "" {
		m.Status = StatusActive
	}
	id, err := s.store.Create(ctx, m)
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.Newf(dErrors.CodeConflict, "a member with ci %s already exists", m.CI)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}
	s.logger.InfoContext(ctx, "member created", "member_id", id, "ci", m.CI)
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *Member) (*Member, error) {
	if err := validate(m); err != nil {
		return nil, err
	}
	err := s.store.Update(ctx, m)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	case errors.Is(err, sentinel.ErrConflict):
		return nil, dErrors.Newf(dErrors.CodeConflict, "a member with ci %s already exists", m.CI)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member")
	}
	return s.Get(ctx, m.ID)
}

// Delete removes the member row. The fingerprint template lives on the same
// row, so it goes with it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "member is referenced by other records")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete member")
	}
	s.logger.InfoContext(ctx, "member deleted", "member_id", id)
	return nil
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.store.Exists(ctx, id)
}

// SavePhoto stores an uploaded photo under the uploads dir and records its
// relative path on the member.
func (s *Service) SavePhoto(ctx context.Context, id int64, filename string, content io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unsupported photo format %q", ext)
	}

	if ok, err := s.store.Exists(ctx, id); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check member")
	} else if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "member not found")
	}

	name := fmt.Sprintf("%d_%s%s", id, uuid.NewString(), ext)
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to prepare uploads dir")
	}
	dst, err := os.Create(filepath.Join(s.uploadsDir, name))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store photo")
	}
	defer dst.Close()
	if _, err := io.Copy(dst, content); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store photo")
	}

	if err := s.store.SetPhoto(ctx, id, name); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record photo")
	}
	s.logger.InfoContext(ctx, "member photo updated", "member_id", id, "file", name)
	return name, nil
}

func validate(m *Member) error {
	if m.CI == "" {
		return dErrors.New(dErrors.CodeValidation, "ci is required")
	}
	if m.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "nombre is required")
	}
	if m.Status != "" && !validStatus(m.Status) {
		return dErrors.Newf(dErrors.CodeValidation, "unknown status %q", m.Status)
	}
	if !validGender(m.Gender) {
		return dErrors.Newf(dErrors.CodeValidation, "unknown gender %q", m.Gender)
	}
	if m.AmountPaid < 0 {
		return dErrors.New(dErrors.CodeValidation, "monto_pagado cannot be negative")
	}
	return nil
}
