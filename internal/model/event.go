// Package model defines the records stored by the event site.
//
// The `db:"..."` tags are read by sqlx when it scans rows into structs, so the
// tag must match the column name in schema.sql exactly.
package model

import "time"

// Event is something visitors can sign up for.
//
// Slug is the unique, URL-safe identifier used in routes (/{slug}) instead of
// the numeric ID.
type Event struct {
	ID          int64     `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Slug        string    `json:"slug"        db:"slug"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location"    db:"location"`
	URL         string    `json:"url"         db:"url"`
	Created     time.Time `json:"created"     db:"created"`
	Updated     time.Time `json:"updated"     db:"updated"`
}
