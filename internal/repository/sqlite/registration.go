package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/repository"
)

var _ repository.RegistrationRepository = (*DB)(nil)

// Register inserts a registration for (reg.Name, reg.Event).
//
// The insert is conflict-aware: UNIQUE (name, event) plus ON CONFLICT DO
// NOTHING means two concurrent requests for the same pair produce one row and
// one apperror.ErrConflict, with no separate existence check to race against.
// An unknown event is reported as apperror.ErrNotFound.
func (db *DB) Register(ctx context.Context, reg *model.Registration) error {
	now := time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO registrations (name, comment, event, created)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (name, event) DO NOTHING`,
		reg.Name,
		reg.Comment,
		reg.Event,
		now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("event", strconv.FormatInt(reg.Event, 10))
		}
		return fail("registering", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.Conflict("registration", reg.Name)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading registration id: %w", err)
	}
	reg.ID = id
	reg.Created = now
	return nil
}

// Unregister deletes name's registration for eventID and returns the number of
// rows removed. Removing a registration that does not exist is not an error.
func (db *DB) Unregister(ctx context.Context, name string, eventID int64) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM registrations WHERE event = ? AND name = ?`,
		eventID,
		name,
	)
	if err != nil {
		return 0, fail("unregistering", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

// IsAlreadyRegistered reports whether name is registered for eventID.
func (db *DB) IsAlreadyRegistered(ctx context.Context, name string, eventID int64) (bool, error) {
	var exists bool
	err := db.conn.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event = ? AND name = ?)`,
		eventID,
		name,
	)
	if err != nil {
		return false, fail("checking registration", err)
	}
	return exists, nil
}

// ListRegistrations returns the registrations for eventID in sign-up order.
// The slice is empty, never nil, when nobody has registered.
func (db *DB) ListRegistrations(ctx context.Context, eventID int64) ([]model.Registration, error) {
	regs := []model.Registration{}
	err := db.conn.SelectContext(ctx, &regs,
		`SELECT id, name, comment, event, created
		 FROM registrations
		 WHERE event = ?
		 ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, fail(fmt.Sprintf("listing registrations of event %d", eventID), err)
	}
	return regs, nil
}
