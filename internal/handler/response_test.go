package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/auth"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/web"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("test-secret-at-least-16-chars!!"))
	require.NoError(t, err)
	rd, err := NewRenderer(web.Templates, auth.NewSessions(tokens, false), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return rd
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperror.ValidationFailed("name", "x"), http.StatusBadRequest},
		{apperror.Unauthorized("x"), http.StatusUnauthorized},
		{apperror.Forbidden("x"), http.StatusForbidden},
		{apperror.NotFound("event", "x"), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", apperror.Conflict("event", "x")), http.StatusConflict},
		{apperror.Unavailable("ping", errors.New("down")), http.StatusServiceUnavailable},
		{errors.New("sqlite: syntax error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), "statusOf(%v)", tt.err)
	}
}

func TestNewRenderer_ParsesAllPages(t *testing.T) {
	rd := newTestRenderer(t)

	for _, page := range pages {
		assert.Contains(t, rd.pages, page)
	}
}

func TestError_HidesInternalDetails(t *testing.T) {
	rd := newTestRenderer(t)
	rec := httptest.NewRecorder()

	rd.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("sqlite: no such table: events"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Eitthvað fór úrskeiðis")
	assert.NotContains(t, rec.Body.String(), "no such table")
}

func TestError_Unavailable(t *testing.T) {
	rd := newTestRenderer(t)
	rec := httptest.NewRecorder()

	rd.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperror.Unavailable("listing events", errors.New("busy")))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Gagnagrunnur er ekki tiltækur")
}

func TestError_NotFoundRendersNotFoundPage(t *testing.T) {
	rd := newTestRenderer(t)
	rec := httptest.NewRecorder()

	rd.Error(rec, httptest.NewRequest(http.MethodGet, "/x", nil), apperror.NotFound("event", "x"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Síða fannst ekki")
}

func TestRender_EscapesUserContent(t *testing.T) {
	rd := newTestRenderer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fundur", nil)

	rd.render(rec, http.StatusOK, "event", eventView{
		layout: rd.layout(rec, req, "Fundur"),
		Event:  &model.Event{Name: "Fundur", Slug: "fundur"},
		Registrations: []model.Registration{
			{Name: "Jón", Comment: `<script>alert(1)</script>`},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestRender_ShowsUser(t *testing.T) {
	rd := newTestRenderer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), &model.User{Name: "Guðrún", Admin: true}))

	rd.render(rec, http.StatusOK, "index", indexView{
		layout: rd.layout(rec, req, siteTitle),
		Links:  Links{Self: &Link{Href: "/?offset=0&limit=10"}},
	})

	body := rec.Body.String()
	assert.Contains(t, body, "Innskráður sem Guðrún")
	assert.Contains(t, body, `href="/admin"`)
	assert.Contains(t, body, "Engir viðburðir.")
}
