package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/fundur", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// capture runs mw and returns the request as the next handler saw it.
func capture(mw func(http.Handler) http.Handler, req *http.Request) *http.Request {
	var seen *http.Request
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
	})).ServeHTTP(httptest.NewRecorder(), req)
	return seen
}

func TestSanitizeXSS(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hlakka til", "hlakka til"},
		{"script tag", `<script>alert("x")</script>kem`, "kem"},
		{"inline markup", "<b>feitt</b> og <i>skáletrað</i>", "feitt og skáletrað"},
		{"event handler", `<img src=x onerror=alert(1)>mynd`, "mynd"},
		{"ampersand kept as text", "Jón & Gunna", "Jón & Gunna"},
		{"comparison kept as text", "3 < 4", "3 < 4"},
		{"encoded script", "&lt;script&gt;alert(1)&lt;/script&gt;kem", "kem"},
		{"encoded event handler", "&lt;img src=x onerror=alert(1)&gt;mynd", "mynd"},
		{"double encoded markup", "&amp;lt;b&amp;gt;feitt&amp;lt;/b&amp;gt;", "feitt"},
		{"numeric entities", "&#60;i&#62;skáletrað&#60;/i&#62;", "skáletrað"},
		{"encoded comparison", "3 &lt; 4", "3 < 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := capture(SanitizeXSS("comment"), postForm(url.Values{"comment": {tt.in}}))
			assert.Equal(t, tt.want, seen.PostForm.Get("comment"))
			assert.Equal(t, tt.want, seen.FormValue("comment"))
		})
	}
}

func TestStripText_NeverLeavesATag(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&amp;amp;amp;amp;amp;amp;amp;amp;amp;amp;lt;b&amp;amp;amp;amp;amp;amp;amp;amp;amp;amp;gt;x",
		"<<b>script>alert(1)<</b>/script>",
		"&lt;<b></b>img src=x onerror=alert(1)&gt;",
	}
	for _, in := range inputs {
		out := stripText(in)
		assert.Equal(t, out, stripText(out), "stripText(%q) is not stable", in)
		assert.NotRegexp(t, `<[a-zA-Z/!]`, out, "stripText(%q) left markup", in)
	}
}

func TestSanitizeXSS_OnlyNamedFields(t *testing.T) {
	seen := capture(SanitizeXSS("comment"), postForm(url.Values{
		"comment": {"<b>x</b>"},
		"name":    {"<b>Jón</b>"},
	}))

	assert.Equal(t, "x", seen.PostForm.Get("comment"))
	assert.Equal(t, "<b>Jón</b>", seen.PostForm.Get("name"))
}

func TestTrim(t *testing.T) {
	seen := capture(Trim("name", "comment"), postForm(url.Values{
		"name":    {"  Jón \t"},
		"comment": {"\n kem \n"},
		"other":   {"  as is  "},
	}))

	assert.Equal(t, "Jón", seen.PostForm.Get("name"))
	assert.Equal(t, "kem", seen.PostForm.Get("comment"))
	assert.Equal(t, "  as is  ", seen.PostForm.Get("other"))
}

func TestTrim_MissingField(t *testing.T) {
	seen := capture(Trim("name"), postForm(url.Values{}))

	assert.Equal(t, "", seen.PostForm.Get("name"))
	_, present := seen.PostForm["name"]
	assert.False(t, present, "Trim must not invent fields")
}

func TestStripText_DeepNesting(t *testing.T) {
	in := "&" + strings.Repeat("amp;", 40) + "lt;b&gt;x"

	assert.Equal(t, "bx", stripText(in))
}
