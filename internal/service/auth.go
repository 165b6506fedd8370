package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/auth"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/repository"
)

// LoginFailedMessage is shown for every failed login, whatever the reason.
const LoginFailedMessage = "Notandanafn eða lykilorð vitlaust."

// AuthService implements the local username/password strategy.
//
//	UserHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger

	// dummyHash is compared against when the username is unknown, so a
	// missing account costs the same bcrypt round as a wrong password.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Authenticate returns the user for a matching username and password.
//
// Unknown usernames and wrong passwords both fail with the same
// apperror.ErrUnauthorized so the response does not reveal which accounts
// exist. Database failures come back unchanged.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.Verify(s.dummy(), password)
			return nil, apperror.Unauthorized(LoginFailedMessage)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.Password, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash is unusable",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(LoginFailedMessage)
	}

	s.logger.Debug("user authenticated", slog.Int64("user_id", user.ID))
	return user, nil
}

// CreateAccount hashes password and stores a new user. A taken username fails
// with apperror.ErrConflict.
func (s *AuthService) CreateAccount(ctx context.Context, name, username, password string, admin bool) (*model.User, error) {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Nafn má ekki vera tómt")
	}
	if username == "" {
		return nil, apperror.ValidationFailed("username", "Notandanafn má ekki vera tómt")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "Lykilorð má ekki vera tómt")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "Lykilorð má vera að hámarki 72 bæti")
	}

	user := &model.User{
		Name:     name,
		Username: username,
		Password: hash,
		Admin:    admin,
	}
	if err := s.users.RegisterUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Bool("admin", user.Admin),
	)
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.passwords.Hash("not-a-real-password")
	})
	return s.dummyHash
}
