package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gosimple/slug"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/server/models"
	"github.com/dmitrijs2005/notevault/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notevault/internal/server/repositories/repomanager"
)

const shareTokenBytes = 24

// NoteService implements the note lifecycle: CRUD scoped to the owner,
// the visibility state machine, and the anonymous read paths.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager) *NoteService {
	return &NoteService{db: db, repomanager: m}
}

// NoteWithFiles carries a note together with its attachment metadata.
type NoteWithFiles struct {
	Note  *models.Note
	Files []*models.File
}

// Create stores a new note. Every note starts out PRIVATE.
func (s *NoteService) Create(ctx context.Context, userID, title, content, dayKey string) (*models.Note, error) {
	if title == "" {
		return nil, common.ErrBadRequest
	}

	repo := s.repomanager.Notes(s.db)
	note, err := repo.Create(ctx, &models.Note{
		UserID: userID, Title: title, Content: content, DayKey: dayKey,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating note: %v", err)
	}
	return note, nil
}

// List returns the owner's notes, optionally filtered by search query and
// day key.
func (s *NoteService) List(ctx context.Context, userID string, f notes.ListFilter) ([]*models.Note, error) {
	repo := s.repomanager.Notes(s.db)

	result, err := repo.List(ctx, userID, f)
	if err != nil {
		return nil, common.ErrInternal
	}
	return result, nil
}

// Get returns the owner's note with its attached files.
func (s *NoteService) Get(ctx context.Context, id, userID string) (*NoteWithFiles, error) {
	noteRepo := s.repomanager.Notes(s.db)
	fileRepo := s.repomanager.Files(s.db)

	note, err := noteRepo.GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}

	attached, err := fileRepo.ListByNote(ctx, note.ID)
	if err != nil {
		return nil, common.ErrInternal
	}

	return &NoteWithFiles{Note: note, Files: attached}, nil
}

// Update rewrites the content fields of the owner's note.
func (s *NoteService) Update(ctx context.Context, id, userID, title, content, dayKey string) (*models.Note, error) {
	if title == "" {
		return nil, common.ErrBadRequest
	}

	repo := s.repomanager.Notes(s.db)

	note, err := repo.GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	note.Title = title
	note.Content = content
	note.DayKey = dayKey
	if err := repo.Update(ctx, note); err != nil {
		return nil, err
	}
	return repo.GetByIDAndOwner(ctx, id, userID)
}

// Delete removes the owner's note. Attached files survive as detached rows;
// only their note reference is cleared, inside the same transaction as the
// note delete.
func (s *NoteService) Delete(ctx context.Context, id, userID string) error {
	noteRepo := s.repomanager.Notes(s.db)

	if _, err := noteRepo.GetByIDAndOwner(ctx, id, userID); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).DetachFromNote(ctx, id, userID); err != nil {
			return err
		}
		return s.repomanager.Notes(tx).Delete(ctx, id)
	})
}

// SetVisibility transitions the owner's note to the requested mode,
// provisioning or clearing the slug and share token as the mode demands.
// Existing identifiers are kept, so leaving a mode and returning to it
// restores the same public URL.
func (s *NoteService) SetVisibility(ctx context.Context, id, userID string, v models.Visibility) (*models.Note, error) {
	if !v.Valid() {
		return nil, common.ErrBadRequest
	}

	repo := s.repomanager.Notes(s.db)

	note, err := repo.GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	var newSlug, newToken sql.NullString

	switch v {
	case models.VisibilityPublic:
		newSlug = note.Slug
		if !newSlug.Valid {
			newSlug = sql.NullString{String: deriveSlug(note.Title, note.ID), Valid: true}
		}
	case models.VisibilityUnlisted:
		newToken = note.ShareToken
		if !newToken.Valid {
			token, err := common.MakeRandURLToken(shareTokenBytes)
			if err != nil {
				return nil, fmt.Errorf("error generating share token: %v", err)
			}
			newToken = sql.NullString{String: token, Valid: true}
		}
	case models.VisibilityPrivate:
		// both identifiers stay zero, clearing the columns
	}

	if err := repo.SetVisibility(ctx, id, v, newSlug, newToken); err != nil {
		return nil, err
	}
	return repo.GetByIDAndOwner(ctx, id, userID)
}

// GetBySlug serves the anonymous PUBLIC read path.
func (s *NoteService) GetBySlug(ctx context.Context, noteSlug string) (*NoteWithFiles, error) {
	note, err := s.repomanager.Notes(s.db).GetBySlug(ctx, noteSlug)
	if err != nil {
		return nil, err
	}
	return s.withFiles(ctx, note)
}

// GetByShareToken serves the anonymous UNLISTED read path.
func (s *NoteService) GetByShareToken(ctx context.Context, token string) (*NoteWithFiles, error) {
	note, err := s.repomanager.Notes(s.db).GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.withFiles(ctx, note)
}

// ListPublic returns the newest PUBLIC notes for the anonymous feed.
func (s *NoteService) ListPublic(ctx context.Context, limit int) ([]*models.PublicNote, error) {
	feed, err := s.repomanager.Notes(s.db).ListPublic(ctx, limit)
	if err != nil {
		return nil, common.ErrInternal
	}
	return feed, nil
}

func (s *NoteService) withFiles(ctx context.Context, note *models.Note) (*NoteWithFiles, error) {
	attached, err := s.repomanager.Files(s.db).ListByNote(ctx, note.ID)
	if err != nil {
		return nil, common.ErrInternal
	}
	return &NoteWithFiles{Note: note, Files: attached}, nil
}

// deriveSlug builds a stable human-readable identifier from the title plus
// the note id tail, which keeps slugs unique across same-titled notes.
func deriveSlug(title, id string) string {
	tail := id
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return slug.Make(title) + "-" + tail
}
