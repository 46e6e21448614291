package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/server/models"
)

// PostgresRepository implements note storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const noteColumns = `id, user_id, title, content, day_key, visibility, slug, share_token, created_at, updated_at`

func scanNote(row interface{ Scan(dest ...any) error }) (*models.Note, error) {
	n := &models.Note{}
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.DayKey,
		&n.Visibility, &n.Slug, &n.ShareToken, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Create inserts a new PRIVATE note and returns it with generated fields.
func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	query := `
		INSERT INTO notes (user_id, title, content, day_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, visibility, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, note.UserID, note.Title, note.Content, note.DayKey).
		Scan(&note.ID, &note.Visibility, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return note, nil
}

// List returns the owner's notes, newest-updated first. The optional query
// matches title or content case-insensitively; the optional day key matches
// exactly.
func (r *PostgresRepository) List(ctx context.Context, userID string, f ListFilter) ([]*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		WHERE user_id = $1
		AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR content ILIKE '%' || $2 || '%')
		AND ($3 = '' OR day_key = $3)
		ORDER BY updated_at DESC
		LIMIT $4
	`

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, query, userID, f.Query, f.DayKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	var result []*models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByIDAndOwner returns the note only when it belongs to userID. A missing
// row and a foreign row both map to common.ErrNotFound so callers cannot
// tell the two apart.
func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Update rewrites the mutable content fields and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, note *models.Note) error {
	query := `
		UPDATE notes SET title = $2, content = $3, day_key = $4, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, note.ID, note.Title, note.Content, note.DayKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the note row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SetVisibility applies a transition outcome. Both exposure columns are
// always written, which structurally re-establishes their mutual
// exclusivity regardless of the previous row state.
func (r *PostgresRepository) SetVisibility(ctx context.Context, id string, v models.Visibility, slug, shareToken sql.NullString) error {
	query := `
		UPDATE notes SET visibility = $2, slug = $3, share_token = $4, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, string(v), slug, shareToken)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// GetBySlug returns the PUBLIC note carrying slug. The visibility predicate
// is part of the query, so a note whose mode has changed is not found even
// if a stale slug value survived in storage.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE slug = $1 AND visibility = 'PUBLIC'`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// GetByShareToken returns the UNLISTED note carrying token, symmetric with
// GetBySlug.
func (r *PostgresRepository) GetByShareToken(ctx context.Context, token string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE share_token = $1 AND visibility = 'UNLISTED'`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// ListPublic returns the newest PUBLIC notes joined with their owner's
// email for the anonymous feed.
func (r *PostgresRepository) ListPublic(ctx context.Context, limit int) ([]*models.PublicNote, error) {
	query := `
		SELECT n.id, n.title, n.day_key, n.slug, u.email, n.created_at, n.updated_at
		FROM notes n
		JOIN users u ON u.id = n.user_id
		WHERE n.visibility = 'PUBLIC' AND n.slug IS NOT NULL
		ORDER BY n.updated_at DESC
		LIMIT $1
	`

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select public notes: %w", err)
	}
	defer rows.Close()

	var result []*models.PublicNote
	for rows.Next() {
		item := &models.PublicNote{}
		if err := rows.Scan(&item.ID, &item.Title, &item.DayKey, &item.Slug,
			&item.OwnerEmail, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
