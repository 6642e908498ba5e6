package event

import (
	"context"
	"errors"
	"log/slog"

	dErrors "novenantes/pkg/domain-errors"
	"novenantes/pkg/platform/sentinel"
)

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) ListEvents(ctx context.Context) ([]Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

func (s *Service) GetEvent(ctx context.Context, id int64) (*Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get event")
	}
	return e, nil
}

func (s *Service) CreateEvent(ctx context.Context, e *Event) (*Event, error) {
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	if e.Status == "" {
		e.Status = "Activo"
	}
	id, err := s.store.CreateEvent(ctx, e)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create event")
	}
	s.logger.InfoContext(ctx, "event created", "event_id", id, "name", e.Name)
	return s.GetEvent(ctx, id)
}

func (s *Service) UpdateEvent(ctx context.Context, e *Event) (*Event, error) {
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	err := s.store.UpdateEvent(ctx, e)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event")
	}
	return s.GetEvent(ctx, e.ID)
}

// DeleteEvent removes the event; registrations cascade with it.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	err := s.store.DeleteEvent(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete event")
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", id)
	return nil
}

func (s *Service) ListTypes(ctx context.Context) ([]EventType, error) {
	types, err := s.store.ListTypes(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list event types")
	}
	return types, nil
}

func (s *Service) ListRegistrations(ctx context.Context, eventID *int64) ([]Registration, error) {
	regs, err := s.store.ListRegistrations(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return regs, nil
}

// Register enrolls a member into an event. A member registers at most once
// per event.
func (s *Service) Register(ctx context.Context, memberID, eventID int64) (int64, error) {
	if memberID <= 0 || eventID <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "fraterno_id and evento_id are required")
	}
	id, err := s.store.CreateRegistration(ctx, memberID, eventID)
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return 0, dErrors.New(dErrors.CodeConflict, "member is already registered for this event")
	case errors.Is(err, sentinel.ErrNotFound):
		return 0, dErrors.New(dErrors.CodeNotFound, "member or event not found")
	case err != nil:
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}
	s.logger.InfoContext(ctx, "member registered for event",
		"member_id", memberID, "event_id", eventID)
	return id, nil
}

func (s *Service) Unregister(ctx context.Context, id int64) error {
	err := s.store.DeleteRegistration(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete registration")
	}
	return nil
}

func validateEvent(e *Event) error {
	if e.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "nombre is required")
	}
	if e.Date.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "fecha is required")
	}
	return nil
}
