// Package repository declares the data-access contracts used by the service
// layer. The sqlite subpackage implements them.
//
// Every method issues parameterized SQL only and reports failure through the
// returned error (see internal/apperror for the taxonomy). A nil error always
// means the value is usable.
package repository

import (
	"context"

	"github.com/sakif/events/internal/model"
)

type ListOptions struct {
	Offset int
	Limit  int
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	// UpdateEvent overwrites name, slug, location and url and bumps updated.
	// Description is left as it is.
	UpdateEvent(ctx context.Context, id int64, event *model.Event) error
	// RemoveEvent deletes the event's registrations and then the event.
	RemoveEvent(ctx context.Context, id int64) error
	RemoveRegistrationsFromEvent(ctx context.Context, id int64) (int64, error)
	ListEvents(ctx context.Context, opts ListOptions) ([]model.Event, error)
	CountEvents(ctx context.Context) (int, error)
	GetEventBySlug(ctx context.Context, slug string) (*model.Event, error)
	GetEventByName(ctx context.Context, name string) (*model.Event, error)
}

type RegistrationRepository interface {
	// Register fails with apperror.ErrConflict when (name, event) is taken.
	Register(ctx context.Context, reg *model.Registration) error
	Unregister(ctx context.Context, name string, eventID int64) (int64, error)
	IsAlreadyRegistered(ctx context.Context, name string, eventID int64) (bool, error)
	ListRegistrations(ctx context.Context, eventID int64) ([]model.Registration, error)
}

type UserRepository interface {
	RegisterUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}
