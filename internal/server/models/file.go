package models

import (
	"database/sql"
	"time"
)

// File describes server-side metadata for a binary object kept in the
// external store. The content itself never touches the database.
type File struct {
	// ID is the file row id.
	ID string
	// UserID is the uploader and exclusive owner.
	UserID string
	// NoteID optionally links the file to a note. Deleting or detaching the
	// note nulls this reference; it never transfers ownership.
	NoteID sql.NullString
	// StorageKey is the object-storage key of the blob, generated
	// server-side and globally unique.
	StorageKey string
	// URL is the public URL of the object when a public base URL is
	// configured, otherwise null.
	URL sql.NullString
	// FileName is the client-declared original name.
	FileName string
	// MimeType is the client-declared content type.
	MimeType string
	// Size is the object size in bytes.
	Size int64

	CreatedAt time.Time
}
