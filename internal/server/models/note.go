package models

import (
	"database/sql"
	"time"
)

// Visibility enumerates the exposure modes of a note.
type Visibility string

const (
	VisibilityPrivate  Visibility = "PRIVATE"
	VisibilityPublic   Visibility = "PUBLIC"
	VisibilityUnlisted Visibility = "UNLISTED"
)

// Valid reports whether v is one of the known modes.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityPublic, VisibilityUnlisted:
		return true
	}
	return false
}

// Note is a note row, restricted to the fields the server persists.
//
// Slug is non-null iff Visibility is PUBLIC and ShareToken non-null iff
// Visibility is UNLISTED; every visibility transition rewrites both columns
// in a single UPDATE, so at most one of them is ever set.
type Note struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	DayKey     string
	Visibility Visibility
	Slug       sql.NullString
	ShareToken sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PublicNote is the projection served on the anonymous public feed.
type PublicNote struct {
	ID         string
	Title      string
	DayKey     string
	Slug       string
	OwnerEmail string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
