package model

// User is a local account.
//
// Password holds a bcrypt hash, never the plaintext. The json tag keeps it out
// of any encoded output.
type User struct {
	ID       int64  `json:"id"       db:"id"`
	Name     string `json:"name"     db:"name"` // display name, also used on registrations
	Username string `json:"username" db:"username"`
	Password string `json:"-"        db:"password"`
	Admin    bool   `json:"admin"    db:"admin"`
}
