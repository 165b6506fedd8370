package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/auth"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/repository"
	"github.com/sakif/events/internal/service"
)

// brokenRegistrations knows one event and fails every registration write.
type brokenRegistrations struct {
	event       model.Event
	unregisters int
}

func (b *brokenRegistrations) CreateEvent(context.Context, *model.Event) error { return nil }
func (b *brokenRegistrations) UpdateEvent(context.Context, int64, *model.Event) error {
	return nil
}
func (b *brokenRegistrations) RemoveEvent(context.Context, int64) error { return nil }
func (b *brokenRegistrations) RemoveRegistrationsFromEvent(context.Context, int64) (int64, error) {
	return 0, nil
}
func (b *brokenRegistrations) ListEvents(context.Context, repository.ListOptions) ([]model.Event, error) {
	return []model.Event{b.event}, nil
}
func (b *brokenRegistrations) CountEvents(context.Context) (int, error) { return 1, nil }
func (b *brokenRegistrations) GetEventByName(ctx context.Context, name string) (*model.Event, error) {
	return b.GetEventBySlug(ctx, name)
}
func (b *brokenRegistrations) GetEventBySlug(_ context.Context, slug string) (*model.Event, error) {
	if slug != b.event.Slug {
		return nil, apperror.NotFound("event", slug)
	}
	event := b.event
	return &event, nil
}

func (b *brokenRegistrations) Register(context.Context, *model.Registration) error {
	return errors.New("sqlite: disk I/O error")
}
func (b *brokenRegistrations) Unregister(context.Context, string, int64) (int64, error) {
	b.unregisters++
	return 0, apperror.Unavailable("sqlite: unregistering", errors.New("database is locked"))
}
func (b *brokenRegistrations) IsAlreadyRegistered(context.Context, string, int64) (bool, error) {
	return false, nil
}
func (b *brokenRegistrations) ListRegistrations(context.Context, int64) ([]model.Registration, error) {
	return []model.Registration{}, nil
}

func newEventRouter(t *testing.T, store *brokenRegistrations) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewEventHandler(
		service.NewEventService(store, store, logger),
		service.NewRegistrationService(store, store, logger),
		newTestRenderer(t),
		logger,
	)

	r := chi.NewRouter()
	r.Get("/{slug}/delete", h.HandleUnregister)
	return r
}

func TestHandleUnregister_RedirectsWhenRemovalFails(t *testing.T) {
	store := &brokenRegistrations{event: model.Event{ID: 1, Name: "Fundur", Slug: "fundur"}}
	router := newEventRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/fundur/delete", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &model.User{ID: 7, Name: "Jón"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, 1, store.unregisters)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/fundur", rec.Header().Get("Location"))
}

func TestHandleUnregister_RedirectsForUnknownEvent(t *testing.T) {
	store := &brokenRegistrations{event: model.Event{ID: 1, Name: "Fundur", Slug: "fundur"}}
	router := newEventRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/annar/delete", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &model.User{ID: 7, Name: "Jón"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Zero(t, store.unregisters)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/annar", rec.Header().Get("Location"))
}

func TestHandleUnregister_AnonymousOnlyRedirects(t *testing.T) {
	store := &brokenRegistrations{event: model.Event{ID: 1, Name: "Fundur", Slug: "fundur"}}
	router := newEventRouter(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fundur/delete", nil))

	assert.Zero(t, store.unregisters)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/fundur", rec.Header().Get("Location"))
}
