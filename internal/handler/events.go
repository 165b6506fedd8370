package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/auth"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/service"
	"github.com/sakif/events/internal/validation"
)

type indexView struct {
	layout
	Events []model.Event
	Links  Links
}

type registrationValues struct {
	Name    string
	Comment string
}

type eventView struct {
	layout
	Event             *model.Event
	Registrations     []model.Registration
	AlreadyRegistered bool
	Errors            validation.Errors
	Form              registrationValues
}

type registeredView struct {
	layout
	Event  *model.Event
	Events []model.Event
}

// EventHandler serves the public pages: the event list, event details and
// registration.
type EventHandler struct {
	events *service.EventService
	regs   *service.RegistrationService
	render *Renderer
	logger *slog.Logger
}

func NewEventHandler(events *service.EventService, regs *service.RegistrationService, render *Renderer, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		regs:   regs,
		render: render,
		logger: logger,
	}
}

// HandleIndex serves GET /?offset=&limit=.
func (h *EventHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)

	page, err := h.events.List(r.Context(), offset, limit)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	h.render.render(w, http.StatusOK, "index", indexView{
		layout: h.render.layout(w, r, siteTitle),
		Events: page.Events,
		Links:  pageLinks("/", page),
	})
}

// HandleShow serves GET /{slug}. An unknown slug falls through to the 404 page.
func (h *EventHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	view, err := h.eventView(w, r, chi.URLParam(r, "slug"))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.render.render(w, http.StatusOK, "event", view)
}

// HandleRegister serves POST /{slug}. It runs after the sanitizing and
// validation middleware; validation errors arrive through the context.
//
// A repeated registration redirects like a successful one: the person is
// registered either way.
func (h *EventHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	submitted := registrationValues{
		Name:    r.PostForm.Get("name"),
		Comment: r.PostForm.Get("comment"),
	}

	name := submitted.Name
	if user, ok := auth.UserFromContext(r.Context()); ok {
		name = user.Name
	}

	if errs := validation.FromContext(r.Context()); len(errs) > 0 {
		h.rerender(w, r, slug, errs, submitted)
		return
	}

	_, err := h.regs.Register(r.Context(), slug, name, submitted.Comment)
	var appErr *apperror.AppError
	switch {
	case err == nil, errors.Is(err, apperror.ErrConflict):
		http.Redirect(w, r, "/"+slug, http.StatusSeeOther)
	case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
		var errs validation.Errors
		errs.Add(appErr.Field, appErr.Message)
		h.rerender(w, r, slug, errs, submitted)
	case errors.Is(err, apperror.ErrNotFound):
		h.render.NotFound(w, r)
	default:
		h.render.Error(w, r, err)
	}
}

// HandleUnregister serves GET /{slug}/delete. Logged-in users are removed
// from the event; everyone is sent back to the event page, whatever the
// outcome. Failures are only logged.
func (h *EventHandler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if user, ok := auth.UserFromContext(r.Context()); ok {
		if _, err := h.regs.Unregister(r.Context(), slug, user.Name); err != nil {
			h.logger.Warn("unregister failed",
				slog.String("event", slug),
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	http.Redirect(w, r, "/"+slug, http.StatusSeeOther)
}

// HandleThanks serves GET /{slug}/thanks.
func (h *EventHandler) HandleThanks(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	page, err := h.events.List(r.Context(), 0, service.DefaultPageLimit)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	h.render.render(w, http.StatusOK, "registered", registeredView{
		layout: h.render.layout(w, r, siteTitle),
		Event:  event,
		Events: page.Events,
	})
}

func (h *EventHandler) rerender(w http.ResponseWriter, r *http.Request, slug string, errs validation.Errors, submitted registrationValues) {
	view, err := h.eventView(w, r, slug)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	view.Errors = errs
	view.Form = submitted
	h.render.render(w, http.StatusBadRequest, "event", view)
}

func (h *EventHandler) eventView(w http.ResponseWriter, r *http.Request, slug string) (eventView, error) {
	detail, err := h.events.Detail(r.Context(), slug)
	if err != nil {
		return eventView{}, err
	}

	var already bool
	if user, ok := auth.UserFromContext(r.Context()); ok {
		already, err = h.regs.IsRegistered(r.Context(), detail.Event.ID, user.Name)
		if err != nil {
			return eventView{}, err
		}
	}

	return eventView{
		layout:            h.render.layout(w, r, detail.Event.Name+" — "+siteTitle),
		Event:             detail.Event,
		Registrations:     detail.Registrations,
		AlreadyRegistered: already,
	}, nil
}
