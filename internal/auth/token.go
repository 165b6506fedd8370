package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	issuer = "events"

	// SessionLifetime is how long a login lasts.
	SessionLifetime = 24 * time.Hour

	// flashLifetime bounds how long an undisplayed flash message survives.
	flashLifetime = 10 * time.Minute
)

// ErrTokenExpired is returned by Validate for a well-formed but expired token.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies the HS256 JWTs carried in the session and
// flash cookies. The server never stores sessions; the signature is the proof.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must be at least 16 bytes.
func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 bytes")
	}
	return &TokenService{secret: secret, now: time.Now}, nil
}

// sessionClaims carries the user id in "sub" and a random "jti" so that two
// logins in the same second still produce different tokens.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// flashClaims carries the pending one-time messages.
type flashClaims struct {
	Messages []string `json:"msg"`
	jwt.RegisteredClaims
}

// Issue returns a signed session token for userID valid for SessionLifetime.
func (s *TokenService) Issue(userID int64) (string, error) {
	return s.IssueWithDuration(userID, SessionLifetime)
}

// IssueWithDuration is Issue with a custom lifetime. Tests use a negative one
// to get an already expired token.
func (s *TokenService) IssueWithDuration(userID int64, d time.Duration) (string, error) {
	now := s.now()
	c := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}
	return s.sign(c)
}

// Validate verifies a session token and returns the user id it was issued for.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	var c sessionClaims
	if err := s.parse(tokenStr, &c); err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("auth: token has no valid subject")
	}
	return id, nil
}

func (s *TokenService) signFlash(messages []string) (string, error) {
	now := s.now()
	c := flashClaims{
		Messages: messages,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashLifetime)),
		},
	}
	return s.sign(c)
}

func (s *TokenService) parseFlash(tokenStr string) ([]string, error) {
	var c flashClaims
	if err := s.parse(tokenStr, &c); err != nil {
		return nil, err
	}
	return c.Messages, nil
}

func (s *TokenService) sign(c jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// parse verifies signature, algorithm, issuer and expiry. Pinning the method
// to HS256 rejects "alg: none" and key confusion tricks.
func (s *TokenService) parse(tokenStr string, c jwt.Claims) error {
	_, err := jwt.ParseWithClaims(tokenStr, c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("auth: invalid token: %w", err)
	}
	return nil
}
