package auth

import (
	"net/http"
	"time"
)

// Cookie names.
const (
	SessionCookie = "session"
	FlashCookie   = "flash"
)

// Sessions writes and clears the session and flash cookies.
//
// Both cookies are HttpOnly and SameSite=Lax. Secure is set in production
// only, so the site still works over plain http on localhost.
type Sessions struct {
	tokens *TokenService
	secure bool
}

// NewSessions creates a Sessions that signs cookies with tokens.
func NewSessions(tokens *TokenService, secure bool) *Sessions {
	return &Sessions{tokens: tokens, secure: secure}
}

// Tokens returns the underlying TokenService.
func (s *Sessions) Tokens() *TokenService { return s.tokens }

// Start logs userID in by setting the session cookie.
func (s *Sessions) Start(w http.ResponseWriter, userID int64) error {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(SessionCookie, token, SessionLifetime))
	return nil
}

// End clears the session cookie.
func (s *Sessions) End(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(SessionCookie, "", -1))
}

// AddFlash queues a one-time message for the next page that calls PopFlash.
// Messages already waiting in the request's flash cookie are kept.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, message string) error {
	messages := append(s.readFlash(r), message)
	token, err := s.tokens.signFlash(messages)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(FlashCookie, token, flashLifetime))
	return nil
}

// PopFlash returns the pending messages and clears the flash cookie, so each
// message is shown exactly once. An invalid or expired cookie yields nothing.
func (s *Sessions) PopFlash(w http.ResponseWriter, r *http.Request) []string {
	if _, err := r.Cookie(FlashCookie); err != nil {
		return nil
	}
	http.SetCookie(w, s.cookie(FlashCookie, "", -1))
	return s.readFlash(r)
}

func (s *Sessions) readFlash(r *http.Request) []string {
	c, err := r.Cookie(FlashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	messages, err := s.tokens.parseFlash(c.Value)
	if err != nil {
		return nil
	}
	return messages
}

// cookie builds a cookie; a negative maxAge deletes it.
func (s *Sessions) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}
