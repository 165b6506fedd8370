package handler

import (
	"net/http"

	"github.com/sakif/events/internal/auth"
)

// registrationForm is the sign-up form on the event page. Logged-in users
// register under their account name, so Name is only required from
// anonymous visitors.
type registrationForm struct {
	Anonymous bool   `form:"-"`
	Name      string `form:"name"    label:"Nafn"       validate:"required_if=Anonymous true,max=64"`
	Comment   string `form:"comment" label:"Athugasemd" validate:"max=400"`
}

// BindRegistration reads a registrationForm from a parsed request.
func BindRegistration(r *http.Request) any {
	_, loggedIn := auth.UserFromContext(r.Context())
	return &registrationForm{
		Anonymous: !loggedIn,
		Name:      r.PostForm.Get("name"),
		Comment:   r.PostForm.Get("comment"),
	}
}

type accountForm struct {
	Name     string `form:"name"     label:"Nafn"        validate:"required,max=64"`
	Username string `form:"username" label:"Notandanafn" validate:"required,alphanum,max=64"`
	Password string `form:"password" label:"Lykilorð"    validate:"required,min=8,max=72"`
}

// BindAccount reads an accountForm from a parsed request.
func BindAccount(r *http.Request) any {
	return &accountForm{
		Name:     r.PostForm.Get("name"),
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
}

type eventForm struct {
	Name        string `form:"name"        label:"Nafn"        validate:"required,max=64"`
	Description string `form:"description" label:"Lýsing"      validate:"max=1000"`
	Location    string `form:"location"    label:"Staðsetning" validate:"max=256"`
	URL         string `form:"url"         label:"Vefslóð"     validate:"omitempty,url,max=256"`
}

// BindEvent reads an eventForm from a parsed request.
func BindEvent(r *http.Request) any {
	return &eventForm{
		Name:        r.PostForm.Get("name"),
		Description: r.PostForm.Get("description"),
		Location:    r.PostForm.Get("location"),
		URL:         r.PostForm.Get("url"),
	}
}

// RegistrationFields, AccountFields and EventFields name the form fields the
// sanitizing middleware should touch on each form.
var (
	RegistrationFields = []string{"name", "comment"}
	AccountFields      = []string{"name", "username"}
	EventFields        = []string{"name", "description", "location", "url"}
)
