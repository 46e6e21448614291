// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account row. PasswordHash is owned exclusively by the
// credential layer and must never leave the server.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
