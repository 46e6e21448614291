// Package files persists metadata rows for objects kept in external
// storage.
package files

import (
	"context"

	"github.com/dmitrijs2005/notevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)

	// GetByIDAndOwner returns the file only when it belongs to userID;
	// missing and foreign rows are indistinguishable to the caller.
	GetByIDAndOwner(ctx context.Context, id, userID string) (*models.File, error)

	ListByNote(ctx context.Context, noteID string) ([]*models.File, error)

	// DetachFromNote nulls the note reference on all of the owner's files
	// attached to noteID. The file rows themselves survive.
	DetachFromNote(ctx context.Context, noteID, userID string) error

	Delete(ctx context.Context, id string) error
}
