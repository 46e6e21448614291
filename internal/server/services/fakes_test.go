package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/server/models"
	"github.com/dmitrijs2005/notevault/internal/server/objectstore"
	filesrepo "github.com/dmitrijs2005/notevault/internal/server/repositories/files"
	notesrepo "github.com/dmitrijs2005/notevault/internal/server/repositories/notes"
	usersrepo "github.com/dmitrijs2005/notevault/internal/server/repositories/users"
)

// --- in-memory repositories ---

type memUsersRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (r *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, common.ErrConflict
	}
	u.ID = fmt.Sprintf("u%d", len(r.byID)+1)
	u.CreatedAt = time.Now()
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	return u, nil
}

func (r *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (r *memUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

type memNotesRepo struct {
	seq   int
	notes map[string]*models.Note
}

func newMemNotesRepo() *memNotesRepo {
	return &memNotesRepo{notes: map[string]*models.Note{}}
}

func (r *memNotesRepo) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	r.seq++
	n.ID = fmt.Sprintf("note-%06d", r.seq)
	n.Visibility = models.VisibilityPrivate
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	r.notes[n.ID] = n
	return n, nil
}

func (r *memNotesRepo) List(ctx context.Context, userID string, f notesrepo.ListFilter) ([]*models.Note, error) {
	var out []*models.Note
	for _, n := range r.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNotesRepo) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Note, error) {
	n, ok := r.notes[id]
	if !ok || n.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *memNotesRepo) Update(ctx context.Context, n *models.Note) error {
	stored, ok := r.notes[n.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored.Title = n.Title
	stored.Content = n.Content
	stored.DayKey = n.DayKey
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memNotesRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.notes[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *memNotesRepo) SetVisibility(ctx context.Context, id string, v models.Visibility, slug, shareToken sql.NullString) error {
	n, ok := r.notes[id]
	if !ok {
		return common.ErrNotFound
	}
	n.Visibility = v
	n.Slug = slug
	n.ShareToken = shareToken
	n.UpdatedAt = time.Now()
	return nil
}

func (r *memNotesRepo) GetBySlug(ctx context.Context, slug string) (*models.Note, error) {
	for _, n := range r.notes {
		if n.Visibility == models.VisibilityPublic && n.Slug.Valid && n.Slug.String == slug {
			cp := *n
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memNotesRepo) GetByShareToken(ctx context.Context, token string) (*models.Note, error) {
	for _, n := range r.notes {
		if n.Visibility == models.VisibilityUnlisted && n.ShareToken.Valid && n.ShareToken.String == token {
			cp := *n
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memNotesRepo) ListPublic(ctx context.Context, limit int) ([]*models.PublicNote, error) {
	var out []*models.PublicNote
	for _, n := range r.notes {
		if n.Visibility == models.VisibilityPublic {
			out = append(out, &models.PublicNote{ID: n.ID, Title: n.Title, Slug: n.Slug.String})
		}
	}
	return out, nil
}

type memFilesRepo struct {
	seq   int
	files map[string]*models.File
}

func newMemFilesRepo() *memFilesRepo {
	return &memFilesRepo{files: map[string]*models.File{}}
}

func (r *memFilesRepo) Create(ctx context.Context, f *models.File) (*models.File, error) {
	r.seq++
	f.ID = fmt.Sprintf("file-%06d", r.seq)
	f.CreatedAt = time.Now()
	r.files[f.ID] = f
	return f, nil
}

func (r *memFilesRepo) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.File, error) {
	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *memFilesRepo) ListByNote(ctx context.Context, noteID string) ([]*models.File, error) {
	var out []*models.File
	for _, f := range r.files {
		if f.NoteID.Valid && f.NoteID.String == noteID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFilesRepo) DetachFromNote(ctx context.Context, noteID, userID string) error {
	for _, f := range r.files {
		if f.UserID == userID && f.NoteID.Valid && f.NoteID.String == noteID {
			f.NoteID = sql.NullString{}
		}
	}
	return nil
}

func (r *memFilesRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.files[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

// fakeRM vends the same in-memory repositories regardless of the DBTX, so
// transactional code paths still see one consistent state.
type fakeRM struct {
	users *memUsersRepo
	notes *memNotesRepo
	files *memFilesRepo
}

func newFakeRM() *fakeRM {
	return &fakeRM{users: newMemUsersRepo(), notes: newMemNotesRepo(), files: newMemFilesRepo()}
}

func (m *fakeRM) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRM) Users(db dbx.DBTX) usersrepo.Repository              { return m.users }
func (m *fakeRM) Notes(db dbx.DBTX) notesrepo.Repository              { return m.notes }
func (m *fakeRM) Files(db dbx.DBTX) filesrepo.Repository              { return m.files }

// --- object store fake ---

type fakeStore struct {
	objects map[string][]byte

	putCalls    int
	deleteCalls []string
	deleteErr   error

	lastGetOpts *objectstore.SignedGetOptions
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	s.putCalls++
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStore) SignedPutURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "http://store/put/" + key, nil
}

func (s *fakeStore) SignedGetURL(ctx context.Context, key string, expires time.Duration, opts *objectstore.SignedGetOptions) (string, error) {
	s.lastGetOpts = opts
	return "http://store/get/" + key, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.deleteCalls = append(s.deleteCalls, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}
