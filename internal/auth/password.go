// Package auth handles local accounts: password hashing, signed session and
// flash cookies, and the middleware that puts the current user on the request.
//
// PASSWORDS:
// bcrypt generates a random salt per hash and embeds it, together with the
// cost, in the output:
//
//	$2a$12$<22-char salt><31-char hash>
//
// so the users table needs a single password column.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor; roughly 250ms per hash on a server.
const defaultCost = 12

// MaxPasswordBytes is where bcrypt stops reading input.
const MaxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords. The cost is a field so tests
// can run at bcrypt.MinCost.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Other packages' tests use bcrypt.MinCost (4); never do that in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
// Passwords over MaxPasswordBytes are rejected rather than silently truncated.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks plaintext against a stored hash. The comparison is constant
// time. A wrong password yields ErrPasswordMismatch; a malformed hash yields
// some other error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
