package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/server/models"
	"github.com/dmitrijs2005/notevault/internal/server/objectstore"
	"github.com/dmitrijs2005/notevault/internal/server/repositories/repomanager"
)

// signedURLValidity bounds every URL the broker hands out.
const signedURLValidity = 5 * time.Minute

var unsafeKeyChars = regexp.MustCompile(`[^\w.\-()\s]`)

// seam for key-format tests
var nowUnixMilli = func() int64 { return time.Now().UnixMilli() }

// UploadParams describes an incoming object before any bytes move.
type UploadParams struct {
	FileName string
	MimeType string
	Size     int64
	NoteID   string
}

// FileService brokers object storage access. Clients never see bucket
// credentials; they get time-limited signed URLs, or hand the bytes to
// UploadDirect for a server-side put.
type FileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	store         objectstore.Store
	publicBaseURL string
}

// NewFileService wires the broker. store may be nil when object storage is
// not configured; operations then fail with common.ErrStoreUnconfigured.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store objectstore.Store, publicBaseURL string) *FileService {
	return &FileService{db: db, repomanager: m, store: store, publicBaseURL: publicBaseURL}
}

// buildObjectKey namespaces the object under the owner and makes collisions
// practically impossible regardless of the client-supplied name.
func buildObjectKey(userID, fileName string) string {
	sanitized := unsafeKeyChars.ReplaceAllString(fileName, "_")
	return fmt.Sprintf("%s/%d-%s-%s", userID, nowUnixMilli(), uuid.NewString(), sanitized)
}

// Presign returns a signed PUT URL plus the object key the client must
// confirm afterwards.
func (s *FileService) Presign(ctx context.Context, userID string, p UploadParams) (string, string, error) {
	if s.store == nil {
		return "", "", common.ErrStoreUnconfigured
	}
	if p.FileName == "" {
		return "", "", common.ErrBadRequest
	}

	key := buildObjectKey(userID, p.FileName)

	url, err := s.store.SignedPutURL(ctx, key, signedURLValidity)
	if err != nil {
		return "", "", fmt.Errorf("error presigning put: %v", err)
	}
	return url, key, nil
}

// Confirm records metadata for an object the client uploaded through a
// presigned URL. When the target note is missing or foreign the request is
// rejected before any row is written.
func (s *FileService) Confirm(ctx context.Context, userID, key string, p UploadParams) (*models.File, error) {
	if key == "" || p.FileName == "" {
		return nil, common.ErrBadRequest
	}

	noteID, err := s.resolveNoteRef(ctx, userID, p.NoteID)
	if err != nil {
		return nil, err
	}

	file := &models.File{
		UserID:     userID,
		NoteID:     noteID,
		StorageKey: key,
		URL:        s.publicURL(key),
		FileName:   p.FileName,
		MimeType:   p.MimeType,
		Size:       p.Size,
	}

	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("error creating file record: %v", err)
	}
	return created, nil
}

// UploadDirect puts the bytes into storage server-side and records the
// metadata row. The declared size must match the received body exactly;
// nothing reaches storage otherwise.
func (s *FileService) UploadDirect(ctx context.Context, userID string, p UploadParams, body []byte) (*models.File, error) {
	if s.store == nil {
		return nil, common.ErrStoreUnconfigured
	}
	if p.FileName == "" {
		return nil, common.ErrBadRequest
	}
	if p.Size != int64(len(body)) {
		return nil, common.ErrBadRequest
	}

	noteID, err := s.resolveNoteRef(ctx, userID, p.NoteID)
	if err != nil {
		return nil, err
	}

	key := buildObjectKey(userID, p.FileName)

	if err := s.store.Put(ctx, key, p.MimeType, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("error storing object: %v", err)
	}

	file := &models.File{
		UserID:     userID,
		NoteID:     noteID,
		StorageKey: key,
		URL:        s.publicURL(key),
		FileName:   p.FileName,
		MimeType:   p.MimeType,
		Size:       p.Size,
	}

	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("error creating file record: %v", err)
	}
	return created, nil
}

// DownloadURL returns a signed GET URL for the owner's file.
func (s *FileService) DownloadURL(ctx context.Context, id, userID string) (string, error) {
	if s.store == nil {
		return "", common.ErrStoreUnconfigured
	}

	file, err := s.repomanager.Files(s.db).GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return "", err
	}

	url, err := s.store.SignedGetURL(ctx, file.StorageKey, signedURLValidity, nil)
	if err != nil {
		return "", fmt.Errorf("error presigning get: %v", err)
	}
	return url, nil
}

// PreviewURL returns a signed GET URL that renders inline in a browser
// under the file's stored name and type.
func (s *FileService) PreviewURL(ctx context.Context, id, userID string) (string, error) {
	if s.store == nil {
		return "", common.ErrStoreUnconfigured
	}

	file, err := s.repomanager.Files(s.db).GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return "", err
	}

	name := strings.NewReplacer(`"`, "", `\`, "").Replace(file.FileName)
	url, err := s.store.SignedGetURL(ctx, file.StorageKey, signedURLValidity, &objectstore.SignedGetOptions{
		ResponseContentType:        file.MimeType,
		ResponseContentDisposition: fmt.Sprintf("inline; filename=%q", name),
	})
	if err != nil {
		return "", fmt.Errorf("error presigning get: %v", err)
	}
	return url, nil
}

// Delete removes the object first and the metadata row only after the
// store confirms. A storage failure keeps the row, so the file stays
// discoverable for a retry.
func (s *FileService) Delete(ctx context.Context, id, userID string) error {
	if s.store == nil {
		return common.ErrStoreUnconfigured
	}

	file, err := s.repomanager.Files(s.db).GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		return fmt.Errorf("error deleting object: %v", err)
	}

	return s.repomanager.Files(s.db).Delete(ctx, file.ID)
}

// resolveNoteRef checks the optional note attachment target belongs to the
// caller. An absent or foreign note is a bad request rather than a not
// found, since the file itself is the subject here.
func (s *FileService) resolveNoteRef(ctx context.Context, userID, noteID string) (sql.NullString, error) {
	if noteID == "" {
		return sql.NullString{}, nil
	}

	if _, err := s.repomanager.Notes(s.db).GetByIDAndOwner(ctx, noteID, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return sql.NullString{}, common.ErrBadRequest
		}
		return sql.NullString{}, common.ErrInternal
	}
	return sql.NullString{String: noteID, Valid: true}, nil
}

func (s *FileService) publicURL(key string) sql.NullString {
	if s.publicBaseURL == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSuffix(s.publicBaseURL, "/") + "/" + key, Valid: true}
}
