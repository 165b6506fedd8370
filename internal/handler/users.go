package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/auth"
	"github.com/sakif/events/internal/service"
	"github.com/sakif/events/internal/validation"
)

type accountValues struct {
	Name     string
	Username string
}

type registerView struct {
	layout
	Errors validation.Errors
	Form   accountValues
}

// UserHandler serves login, logout and account registration.
type UserHandler struct {
	auth     *service.AuthService
	sessions *auth.Sessions
	render   *Renderer
	logger   *slog.Logger
}

func NewUserHandler(authService *service.AuthService, sessions *auth.Sessions, render *Renderer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		auth:     authService,
		sessions: sessions,
		render:   render,
		logger:   logger,
	}
}

// HandleLoginForm serves GET /login. Failed attempts show up here as flash
// messages, once.
func (h *UserHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render.render(w, http.StatusOK, "login", h.render.layout(w, r, "Innskráning"))
}

// HandleLogin serves POST /login.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.auth.Authenticate(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		if !errors.Is(err, apperror.ErrUnauthorized) {
			h.render.Error(w, r, err)
			return
		}
		if err := h.sessions.AddFlash(w, r, service.LoginFailedMessage); err != nil {
			h.logger.Error("failed to set flash", slog.String("error", err.Error()))
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := h.sessions.Start(w, user.ID); err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout serves GET /logout.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRegisterForm serves GET /register.
func (h *UserHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, http.StatusOK, "register", registerView{
		layout: h.render.layout(w, r, "Nýskráning"),
	})
}

// HandleRegister serves POST /register, after validation.Middleware.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	submitted := accountValues{
		Name:     r.PostForm.Get("name"),
		Username: r.PostForm.Get("username"),
	}

	errs := validation.FromContext(r.Context())
	if len(errs) == 0 {
		_, err := h.auth.CreateAccount(r.Context(), submitted.Name, submitted.Username, r.PostForm.Get("password"), false)
		var appErr *apperror.AppError
		switch {
		case err == nil:
			if err := h.sessions.AddFlash(w, r, "Aðgangur búinn til, þú getur nú skráð þig inn."); err != nil {
				h.logger.Error("failed to set flash", slog.String("error", err.Error()))
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		case errors.Is(err, apperror.ErrConflict):
			errs.Add("username", "Notandanafn er þegar í notkun")
		case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
			errs.Add(appErr.Field, appErr.Message)
		default:
			h.render.Error(w, r, err)
			return
		}
	}

	h.render.render(w, http.StatusBadRequest, "register", registerView{
		layout: h.render.layout(w, r, "Nýskráning"),
		Errors: errs,
		Form:   submitted,
	})
}
