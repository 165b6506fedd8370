package middleware

import (
	"html"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every HTML element, leaving only text.
var strict = bluemonday.StrictPolicy()

// maxSanitizePasses bounds stripText on pathological nesting of entities.
const maxSanitizePasses = 32

// SanitizeXSS strips HTML from the named form fields before any later handler
// sees them. The stored value is plain text; html/template escapes it on
// output.
func SanitizeXSS(fields ...string) func(http.Handler) http.Handler {
	return rewriteFields(fields, stripText)
}

// stripText removes markup from v, including markup hidden behind one or
// more layers of entity encoding such as "&lt;b&gt;" or "&amp;lt;b&amp;gt;".
// bluemonday escapes the text it keeps, so each pass unescapes its output and
// the next pass strips any tag that decoding revealed. The loop ends when a
// pass changes nothing.
func stripText(v string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(strict.Sanitize(v))
		if next == v {
			return v
		}
		v = next
	}
	// Still changing: decode what is left and drop the angle brackets so no
	// tag can survive.
	for {
		next := html.UnescapeString(v)
		if next == v {
			return angleBrackets.Replace(v)
		}
		v = next
	}
}

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// Trim removes leading and trailing whitespace from the named form fields.
func Trim(fields ...string) func(http.Handler) http.Handler {
	return rewriteFields(fields, strings.TrimSpace)
}

// rewriteFields applies fn to every value of the named fields in both
// r.PostForm and r.Form. A body that cannot be parsed is passed through
// untouched; the validation middleware reports it.
func rewriteFields(fields []string, fn func(string) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err == nil {
				for _, field := range fields {
					for _, form := range []map[string][]string{r.PostForm, r.Form} {
						values := form[field]
						for i, v := range values {
							values[i] = fn(v)
						}
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
