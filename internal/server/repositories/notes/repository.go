// Package notes persists note rows, including the visibility columns the
// exposure state machine rewrites on every transition.
package notes

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notevault/internal/server/models"
)

// ListFilter narrows an owner-scoped listing. Zero values mean "no filter".
type ListFilter struct {
	Query  string
	DayKey string
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	List(ctx context.Context, userID string, f ListFilter) ([]*models.Note, error)
	GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Note, error)
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id string) error

	// SetVisibility rewrites the visibility column together with both the
	// slug and share_token columns in one statement, so their mutual
	// exclusivity holds under any interleaving of transitions.
	SetVisibility(ctx context.Context, id string, v models.Visibility, slug, shareToken sql.NullString) error

	// GetBySlug matches only notes whose current visibility is PUBLIC.
	GetBySlug(ctx context.Context, slug string) (*models.Note, error)
	// GetByShareToken matches only notes whose current visibility is UNLISTED.
	GetByShareToken(ctx context.Context, token string) (*models.Note, error)
	ListPublic(ctx context.Context, limit int) ([]*models.PublicNote, error)
}
