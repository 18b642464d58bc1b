package models

import "github.com/google/uuid"

// newID returns a fresh uuid string. IDs are generated application-side
// so the same models work on postgres and the sqlite test database.
func newID() string {
	return uuid.NewString()
}
