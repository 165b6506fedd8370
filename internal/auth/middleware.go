package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/model"
)

// contextKey is unexported so no other package can read or shadow the value.
type contextKey string

const userKey contextKey = "user"

// UserGetter is the single repository call the session middleware needs.
type UserGetter interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// LoadUser resolves the session cookie to a user and stores it in the request
// context. It never blocks a request: a missing, expired or forged cookie, or
// a user that no longer exists, leaves the request anonymous. A stale cookie
// is cleared on the way through.
func (s *Sessions) LoadUser(users UserGetter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := s.tokens.Validate(c.Value)
			if err != nil {
				s.End(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			switch {
			case errors.Is(err, apperror.ErrNotFound):
				s.End(w)
			case err != nil:
				logger.Warn("loading session user failed",
					slog.Int64("user_id", userID),
					slog.String("error", err.Error()),
				)
			default:
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ForbiddenMessage is shown to logged-in users who open an admin page.
const ForbiddenMessage = "Aðeins stjórnendur hafa aðgang að þessari síðu."

// RequireAdmin sends anonymous visitors to /login and hands logged-in users
// without the admin flag an apperror.ErrForbidden through fail, which renders
// the response. It must run after LoadUser.
func RequireAdmin(fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !user.Admin {
				fail(w, r, apperror.Forbidden(ForbiddenMessage))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the logged-in user, or (nil, false) for anonymous
// requests.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}
