package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/repository"
)

type RegistrationService struct {
	events repository.EventRepository
	regs   repository.RegistrationRepository
	logger *slog.Logger
}

func NewRegistrationService(events repository.EventRepository, regs repository.RegistrationRepository, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{events: events, regs: regs, logger: logger}
}

// Register signs name up for the event at eventSlug.
//
// A second registration for the same name and event fails with
// apperror.ErrConflict; the database enforces this, so it also holds for two
// requests racing each other.
func (s *RegistrationService) Register(ctx context.Context, eventSlug, name, comment string) (*model.Registration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Nafn má ekki vera tómt")
	}

	event, err := s.events.GetEventBySlug(ctx, eventSlug)
	if err != nil {
		return nil, err
	}

	reg := &model.Registration{
		Name:    name,
		Comment: strings.TrimSpace(comment),
		Event:   event.ID,
	}
	if err := s.regs.Register(ctx, reg); err != nil {
		return nil, err
	}

	s.logger.Info("registered",
		slog.String("event", event.Slug),
		slog.Int64("registration_id", reg.ID),
	)
	return reg, nil
}

// Unregister removes name from the event at eventSlug. It reports whether a
// registration was actually removed.
func (s *RegistrationService) Unregister(ctx context.Context, eventSlug, name string) (bool, error) {
	event, err := s.events.GetEventBySlug(ctx, eventSlug)
	if err != nil {
		return false, err
	}

	n, err := s.regs.Unregister(ctx, name, event.ID)
	if err != nil {
		return false, fmt.Errorf("unregistering from %s: %w", eventSlug, err)
	}
	if n > 0 {
		s.logger.Info("unregistered", slog.String("event", event.Slug))
	}
	return n > 0, nil
}

// IsRegistered reports whether name is registered for eventID.
func (s *RegistrationService) IsRegistered(ctx context.Context, eventID int64, name string) (bool, error) {
	return s.regs.IsAlreadyRegistered(ctx, name, eventID)
}
