package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/events/internal/apperror"
)

type errorView struct {
	layout
	Message string
}

// statusOf maps a service error to an HTTP status code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error renders the error page for err. Unknown slugs get the 404 page.
// The message shown is the AppError message for expected failures and a
// generic text otherwise, so SQL and file paths never reach the browser.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusNotFound {
		rd.NotFound(w, r)
		return
	}

	message := "Eitthvað fór úrskeiðis. Reyndu aftur síðar."
	var appErr *apperror.AppError
	if status < 500 && errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status == http.StatusServiceUnavailable {
		message = "Gagnagrunnur er ekki tiltækur. Reyndu aftur síðar."
	}

	if status >= 500 {
		rd.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	rd.render(w, status, "error", errorView{
		layout:  rd.layout(w, r, "Villa — "+siteTitle),
		Message: message,
	})
}
