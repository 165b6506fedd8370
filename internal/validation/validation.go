// Package validation checks submitted forms with go-playground/validator and
// collects the failures for the handler to show.
//
// Validation never rejects a request by itself. Middleware binds and checks
// the form, stores the result in the request context, and always calls the
// next handler; the handler decides whether to re-render the form.
//
// Form structs declare rules with `validate` tags, the form field name with
// `form`, and the human label used in messages with `label`:
//
//	type registrationForm struct {
//	    Name    string `form:"name"    label:"Nafn"       validate:"required,max=64"`
//	    Comment string `form:"comment" label:"Athugasemd" validate:"max=400"`
//	}
package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule, keyed by form field name.
type FieldError struct {
	Field   string
	Message string
}

// Errors is the request-scoped accumulator. The zero value means valid.
type Errors []FieldError

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Message returns the first message for field, or "".
func (e Errors) Message(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Add appends an error. Handlers use it for rules only the database knows,
// such as a taken username.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Validator wraps a *validator.Validate configured for form structs.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator that reports fields by their `form` tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns every failure in field order.
// It panics if s is not a struct; that is a programming error.
func (v *Validator) Struct(s any) Errors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(fmt.Sprintf("validation: %v", err))
	}

	labels := labelsOf(s)
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		label := labels[fe.StructField()]
		if label == "" {
			label = fe.Field()
		}
		out = append(out, FieldError{Field: fe.Field(), Message: message(label, fe)})
	}
	return out
}

func message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_without":
		return fmt.Sprintf("%s má ekki vera tómt", label)
	case "max":
		return fmt.Sprintf("%s má að hámarki vera %s stafir", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s verður að vera að minnsta kosti %s stafir", label, fe.Param())
	case "url", "http_url":
		return fmt.Sprintf("%s verður að vera gild vefslóð", label)
	case "alphanum":
		return fmt.Sprintf("%s má aðeins innihalda bókstafi og tölustafi", label)
	default:
		return fmt.Sprintf("%s er ógilt", label)
	}
}

func labelsOf(s any) map[string]string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	labels := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		labels[f.Name] = f.Tag.Get("label")
	}
	return labels
}

type contextKey struct{}

// WithErrors returns a copy of ctx carrying errs.
func WithErrors(ctx context.Context, errs Errors) context.Context {
	return context.WithValue(ctx, contextKey{}, errs)
}

// FromContext returns the errors stored by Middleware. A request that never
// went through Middleware has none.
func FromContext(ctx context.Context) Errors {
	errs, _ := ctx.Value(contextKey{}).(Errors)
	return errs
}

// Middleware parses the request form, fills a fresh struct with bind and
// validates it. The result is stored in the context for FromContext.
// A form that cannot be parsed counts as a single error on field "form".
func Middleware(v *Validator, bind func(r *http.Request) any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var errs Errors
			if err := r.ParseForm(); err != nil {
				errs.Add("form", "Ekki tókst að lesa innsent form")
			} else {
				errs = v.Struct(bind(r))
			}
			next.ServeHTTP(w, r.WithContext(WithErrors(r.Context(), errs)))
		})
	}
}
