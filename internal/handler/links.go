package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/sakif/events/internal/service"
)

// Link is one HAL style hyperlink.
type Link struct {
	Href string `json:"href"`
}

// Links are the pagination links around a page of events.
type Links struct {
	Self *Link `json:"self"`
	Prev *Link `json:"prev,omitempty"`
	Next *Link `json:"next,omitempty"`
}

// pageParams reads offset and limit from the query string. Missing or
// malformed values fall back to the defaults (0 and 10); the service clamps
// the rest.
func pageParams(r *http.Request) (offset, limit int) {
	offset = queryInt(r, "offset", 0)
	limit = queryInt(r, "limit", service.DefaultPageLimit)
	return offset, limit
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// pageLinks builds self, prev and next links for page under base (a path
// such as "/" or "/admin"). Prev never goes below offset 0.
func pageLinks(base string, page service.Page) Links {
	links := Links{Self: &Link{Href: pageHref(base, page.Offset, page.Limit)}}
	if page.HasPrev() {
		links.Prev = &Link{Href: pageHref(base, max(page.Offset-page.Limit, 0), page.Limit)}
	}
	if page.HasNext() {
		links.Next = &Link{Href: pageHref(base, page.Offset+page.Limit, page.Limit)}
	}
	return links
}

func pageHref(base string, offset, limit int) string {
	return fmt.Sprintf("%s?offset=%d&limit=%d", base, offset, limit)
}
