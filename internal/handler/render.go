// Package handler contains the HTTP handlers for the event site.
//
// Handlers parse the request, call a service, and either redirect or render
// an HTML page. They hold no business rules; those live in internal/service.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/events/internal/auth"
	"github.com/sakif/events/internal/model"
)

const siteTitle = "Viðburðasíðan"

// pages lists every template under templates/ that renders a full page.
var pages = []string{
	"index",
	"event",
	"registered",
	"login",
	"register",
	"admin",
	"admin_event",
	"error",
	"notfound",
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("02.01.2006 15:04")
	},
}

// layout is embedded in every view; base.html reads these fields.
type layout struct {
	Title string
	User  *model.User
	Flash []string
}

// Renderer owns the parsed templates. Each page is parsed together with
// base.html and partials.html into its own set, so every page can define
// "content" without clashing.
type Renderer struct {
	pages    map[string]*template.Template
	sessions *auth.Sessions
	logger   *slog.Logger
}

// NewRenderer parses every page from fsys once, at startup.
func NewRenderer(fsys fs.FS, sessions *auth.Sessions, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		pages:    make(map[string]*template.Template, len(pages)),
		sessions: sessions,
		logger:   logger,
	}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "base.html", "partials.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// layout builds the shared part of a view. It pops pending flash messages, so
// call it only for responses that actually render a page.
func (rd *Renderer) layout(w http.ResponseWriter, r *http.Request, title string) layout {
	user, _ := auth.UserFromContext(r.Context())
	return layout{
		Title: title,
		User:  user,
		Flash: rd.sessions.PopFlash(w, r),
	}
}

// render executes page into a buffer and writes it with status. Rendering to
// a buffer first means a template error never leaves a half written page.
func (rd *Renderer) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// NotFound renders the 404 page. The router uses it for unmatched paths and
// handlers call it for unknown slugs.
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.render(w, http.StatusNotFound, "notfound", rd.layout(w, r, "Síða fannst ekki"))
}
