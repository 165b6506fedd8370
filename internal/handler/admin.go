package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/service"
	"github.com/sakif/events/internal/validation"
)

type eventValues struct {
	Name        string
	Description string
	Location    string
	URL         string
}

type adminView struct {
	layout
	Events  []model.Event
	Links   Links
	Action  string
	Editing bool
	Errors  validation.Errors
	Form    eventValues
}

// AdminHandler serves /admin. Every route sits behind auth.RequireAdmin.
type AdminHandler struct {
	events *service.EventService
	render *Renderer
	logger *slog.Logger
}

func NewAdminHandler(events *service.EventService, render *Renderer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{events: events, render: render, logger: logger}
}

// HandleIndex serves GET /admin: the event list and an empty create form.
func (h *AdminHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, nil, eventValues{})
}

// HandleCreate serves POST /admin.
func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	submitted := eventValuesFrom(r)

	errs := validation.FromContext(r.Context())
	if len(errs) == 0 {
		event, err := h.events.Create(r.Context(), submitted.input())
		if err == nil {
			http.Redirect(w, r, "/"+event.Slug, http.StatusSeeOther)
			return
		}
		if !formError(err, &errs) {
			h.render.Error(w, r, err)
			return
		}
	}
	h.renderIndex(w, r, http.StatusBadRequest, errs, submitted)
}

// HandleEdit serves GET /admin/{slug}.
func (h *AdminHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	event, err := h.events.Get(r.Context(), slug)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	h.render.render(w, http.StatusOK, "admin_event", adminView{
		layout:  h.render.layout(w, r, "Breyta "+event.Name),
		Action:  "/admin/" + event.Slug,
		Editing: true,
		Form: eventValues{
			Name:        event.Name,
			Description: event.Description,
			Location:    event.Location,
			URL:         event.URL,
		},
	})
}

// HandleUpdate serves POST /admin/{slug}. The event may get a new slug, so
// the redirect goes to wherever it lives now.
func (h *AdminHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	submitted := eventValuesFrom(r)

	errs := validation.FromContext(r.Context())
	if len(errs) == 0 {
		event, err := h.events.Update(r.Context(), slug, submitted.input())
		if err == nil {
			http.Redirect(w, r, "/"+event.Slug, http.StatusSeeOther)
			return
		}
		if !formError(err, &errs) {
			h.render.Error(w, r, err)
			return
		}
	}

	// The description field is read-only on the edit form, so browsers do not
	// submit it; show the stored one again.
	stored, err := h.events.Get(r.Context(), slug)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	submitted.Description = stored.Description

	h.render.render(w, http.StatusBadRequest, "admin_event", adminView{
		layout:  h.render.layout(w, r, "Breyta viðburði"),
		Action:  "/admin/" + slug,
		Editing: true,
		Errors:  errs,
		Form:    submitted,
	})
}

// HandleDelete serves POST /admin/{slug}/delete.
func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Remove(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *AdminHandler) renderIndex(w http.ResponseWriter, r *http.Request, status int, errs validation.Errors, form eventValues) {
	offset, limit := pageParams(r)
	page, err := h.events.List(r.Context(), offset, limit)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	h.render.render(w, status, "admin", adminView{
		layout: h.render.layout(w, r, "Stjórnborð — "+siteTitle),
		Events: page.Events,
		Links:  pageLinks("/admin", page),
		Action: "/admin",
		Errors: errs,
		Form:   form,
	})
}

// formError turns errors the user can fix into form errors. It reports false
// for anything else.
func formError(err error, errs *validation.Errors) bool {
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrConflict):
		errs.Add("name", "Viðburður með þessu nafni er þegar til")
		return true
	case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
		errs.Add(appErr.Field, appErr.Message)
		return true
	}
	return false
}

func eventValuesFrom(r *http.Request) eventValues {
	return eventValues{
		Name:        r.PostForm.Get("name"),
		Description: r.PostForm.Get("description"),
		Location:    r.PostForm.Get("location"),
		URL:         r.PostForm.Get("url"),
	}
}

func (v eventValues) input() service.EventInput {
	return service.EventInput{
		Name:        v.Name,
		Description: v.Description,
		Location:    v.Location,
		URL:         v.URL,
	}
}
