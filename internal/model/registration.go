package model

import "time"

// Registration links one person's name (and an optional comment) to one event.
// A (Name, Event) pair is unique.
type Registration struct {
	ID      int64     `json:"id"      db:"id"`
	Name    string    `json:"name"    db:"name"`
	Comment string    `json:"comment" db:"comment"`
	Event   int64     `json:"event"   db:"event"` // events.id
	Created time.Time `json:"created" db:"created"`
}
