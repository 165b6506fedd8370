package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/events/internal/apperror"
	"github.com/sakif/events/internal/model"
	"github.com/sakif/events/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

const eventColumns = `id, name, slug, description, location, url, created, updated`

// CreateEvent inserts a new event and fills in its ID and timestamps.
// A duplicate slug or name is reported as apperror.ErrConflict.
//
// Timestamps come from Go, not CURRENT_TIMESTAMP, to keep sub-second precision.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	now := time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (name, slug, description, location, url, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.Name,
		event.Slug,
		event.Description,
		event.Location,
		event.URL,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("event", event.Slug)
		}
		return fail("creating event", err)
	}

	if err := expectOneRow(result, "creating event"); err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading event id: %w", err)
	}

	event.ID = id
	event.Created = now
	event.Updated = now
	return nil
}

// UpdateEvent overwrites name, slug, location and url of event id and sets
// updated to now. Description is never written; the stored description
// survives every update.
//
// On success *event is replaced with the stored row.
func (db *DB) UpdateEvent(ctx context.Context, id int64, event *model.Event) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE events
		 SET name = ?, slug = ?, location = ?, url = ?, updated = ?
		 WHERE id = ?`,
		event.Name,
		event.Slug,
		event.Location,
		event.URL,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("event", event.Slug)
		}
		return fail(fmt.Sprintf("updating event %d", id), err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("event", strconv.FormatInt(id, 10))
	}

	stored, err := db.getEvent(ctx, "id", id)
	if err != nil {
		return err
	}
	*event = *stored
	return nil
}

// RemoveRegistrationsFromEvent deletes every registration for event id and
// returns how many were removed.
func (db *DB) RemoveRegistrationsFromEvent(ctx context.Context, id int64) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM registrations WHERE event = ?`, id)
	if err != nil {
		return 0, fail(fmt.Sprintf("removing registrations of event %d", id), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

// RemoveEvent deletes the registrations of event id and then the event itself,
// in one transaction. Either both go or neither does.
func (db *DB) RemoveEvent(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fail("beginning transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event = ?`, id); err != nil {
		return fail(fmt.Sprintf("removing registrations of event %d", id), err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fail(fmt.Sprintf("removing event %d", id), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("event", strconv.FormatInt(id, 10))
	}

	if err := tx.Commit(); err != nil {
		return fail("committing event removal", err)
	}
	return nil
}

// ListEvents returns one page of events ordered by ascending id.
// The limit defaults to DefaultListLimit and never exceeds MaxListLimit.
func (db *DB) ListEvents(ctx context.Context, opts repository.ListOptions) ([]model.Event, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	events := make([]model.Event, 0, limit)
	err := db.conn.SelectContext(ctx, &events,
		`SELECT `+eventColumns+`
		 FROM events
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fail("listing events", err)
	}
	return events, nil
}

// CountEvents returns the total number of events.
func (db *DB) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM events`); err != nil {
		return 0, fail("counting events", err)
	}
	return n, nil
}

// GetEventBySlug returns the event with the given slug or apperror.ErrNotFound.
func (db *DB) GetEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	return db.getEvent(ctx, "slug", slug)
}

// GetEventByName returns the event with the given name or apperror.ErrNotFound.
func (db *DB) GetEventByName(ctx context.Context, name string) (*model.Event, error) {
	return db.getEvent(ctx, "name", name)
}

// getEvent looks an event up by one unique column. column is always a
// constant from this file, never user input.
func (db *DB) getEvent(ctx context.Context, column string, value any) (*model.Event, error) {
	var event model.Event
	err := db.conn.GetContext(ctx, &event,
		`SELECT `+eventColumns+` FROM events WHERE `+column+` = ?`,
		value,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event", fmt.Sprint(value))
		}
		return nil, fail(fmt.Sprintf("getting event by %s", column), err)
	}
	return &event, nil
}

// expectOneRow checks that a single-row statement touched exactly one row.
func expectOneRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: %s: checking rows affected: %w", op, err)
	}
	if n != 1 {
		return fmt.Errorf("sqlite: %s: %d rows affected, want 1", op, n)
	}
	return nil
}
