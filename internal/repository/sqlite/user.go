package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// RegisterUser inserts a new account. user.Password must already be hashed;
// this layer stores whatever it is given.
// A taken username is reported as apperror.ErrConflict.
func (db *DB) RegisterUser(ctx context.Context, user *model.User) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (name, username, password, admin)
		 VALUES (?, ?, ?, ?)`,
		user.Name,
		user.Username,
		user.Password,
		user.Admin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fail(fmt.Sprintf("inserting user %s", user.Username), err)
	}

	if err := expectOneRow(result, "inserting user"); err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u,
		`SELECT id, name, username, password, admin FROM users WHERE id = ?`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fail(fmt.Sprintf("getting user %d", id), err)
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username, for the login strategy.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u,
		`SELECT id, name, username, password, admin FROM users WHERE username = ?`,
		username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fail("getting user by username", err)
	}
	return &u, nil
}
