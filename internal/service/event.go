// Package service holds the business rules between the HTTP handlers and the
// repositories.
//
// Services take repository interfaces, never *sqlite.DB, and return apperror
// values rather than HTTP status codes. Handlers translate one to the other.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/repository"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// reservedSlugs collide with fixed routes and can never name an event.
var reservedSlugs = map[string]bool{
	"admin":    true,
	"login":    true,
	"logout":   true,
	"register": true,
	"static":   true,
}

// EventInput is the editable part of an event.
type EventInput struct {
	Name        string
	Description string
	Location    string
	URL         string
}

// Page is one slice of the event list plus what is needed to link around it.
type Page struct {
	Events []model.Event
	Offset int
	Limit  int
	Total  int
}

// HasPrev reports whether there are events before this page.
func (p Page) HasPrev() bool { return p.Offset > 0 }

// HasNext reports whether there are events after this page.
func (p Page) HasNext() bool { return p.Offset+p.Limit < p.Total }

// EventDetail is an event with everyone registered for it.
type EventDetail struct {
	Event         *model.Event
	Registrations []model.Registration
}

type EventService struct {
	events repository.EventRepository
	regs   repository.RegistrationRepository
	logger *slog.Logger
}

func NewEventService(events repository.EventRepository, regs repository.RegistrationRepository, logger *slog.Logger) *EventService {
	return &EventService{events: events, regs: regs, logger: logger}
}

// List returns one page of events in ascending id order. A non-positive limit
// means DefaultPageLimit; anything above MaxPageLimit is clamped.
func (s *EventService) List(ctx context.Context, offset, limit int) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	events, err := s.events.ListEvents(ctx, repository.ListOptions{Offset: offset, Limit: limit})
	if err != nil {
		return Page{}, fmt.Errorf("listing events: %w", err)
	}
	total, err := s.events.CountEvents(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("counting events: %w", err)
	}

	return Page{Events: events, Offset: offset, Limit: limit, Total: total}, nil
}

// Get returns the event with the given slug.
func (s *EventService) Get(ctx context.Context, eventSlug string) (*model.Event, error) {
	return s.events.GetEventBySlug(ctx, eventSlug)
}

// Detail returns the event and its registrations.
func (s *EventService) Detail(ctx context.Context, eventSlug string) (*EventDetail, error) {
	event, err := s.events.GetEventBySlug(ctx, eventSlug)
	if err != nil {
		return nil, err
	}

	regs, err := s.regs.ListRegistrations(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("listing registrations for %s: %w", eventSlug, err)
	}
	return &EventDetail{Event: event, Registrations: regs}, nil
}

// Create stores a new event. The slug is derived from the name.
func (s *EventService) Create(ctx context.Context, in EventInput) (*model.Event, error) {
	in = in.trimmed()
	eventSlug, err := slugFor(in.Name)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		Name:        in.Name,
		Slug:        eventSlug,
		Description: in.Description,
		Location:    in.Location,
		URL:         in.URL,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		slog.Int64("id", event.ID),
		slog.String("slug", event.Slug),
	)
	return event, nil
}

// Update renames and relocates the event currently at eventSlug. The slug
// follows the new name. The description is kept as it was.
func (s *EventService) Update(ctx context.Context, eventSlug string, in EventInput) (*model.Event, error) {
	in = in.trimmed()
	current, err := s.events.GetEventBySlug(ctx, eventSlug)
	if err != nil {
		return nil, err
	}

	newSlug, err := slugFor(in.Name)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		Name:        in.Name,
		Slug:        newSlug,
		Description: current.Description,
		Location:    in.Location,
		URL:         in.URL,
	}
	if err := s.events.UpdateEvent(ctx, current.ID, event); err != nil {
		return nil, err
	}

	s.logger.Info("event updated",
		slog.Int64("id", event.ID),
		slog.String("old_slug", eventSlug),
		slog.String("slug", event.Slug),
	)
	return event, nil
}

// Remove deletes the event and every registration for it.
func (s *EventService) Remove(ctx context.Context, eventSlug string) error {
	event, err := s.events.GetEventBySlug(ctx, eventSlug)
	if err != nil {
		return err
	}
	if err := s.events.RemoveEvent(ctx, event.ID); err != nil {
		return err
	}

	s.logger.Info("event removed",
		slog.Int64("id", event.ID),
		slog.String("slug", eventSlug),
	)
	return nil
}

func slugFor(name string) (string, error) {
	if name == "" {
		return "", apperror.ValidationFailed("name", "Nafn má ekki vera tómt")
	}
	s := slug.Make(name)
	if s == "" {
		return "", apperror.ValidationFailed("name", "Nafn verður að innihalda bókstafi eða tölustafi")
	}
	if reservedSlugs[s] {
		return "", apperror.ValidationFailed("name", fmt.Sprintf("Nafnið %q er frátekið", name))
	}
	return s, nil
}

func (in EventInput) trimmed() EventInput {
	return EventInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		URL:         strings.TrimSpace(in.URL),
	}
}
