package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/dmitrijs2005/notevault/internal/dbx"
	"github.com/dmitrijs2005/notevault/internal/logging"
	"github.com/dmitrijs2005/notevault/internal/server/config"
	"github.com/dmitrijs2005/notevault/internal/server/models"
	"github.com/dmitrijs2005/notevault/internal/server/objectstore"
	"github.com/dmitrijs2005/notevault/internal/server/ratelimit"
	filesrepo "github.com/dmitrijs2005/notevault/internal/server/repositories/files"
	notesrepo "github.com/dmitrijs2005/notevault/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notevault/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/notevault/internal/server/repositories/users"
	"github.com/dmitrijs2005/notevault/internal/server/services"
)

// --- in-memory repositories backing the API under test ---

type memUsers struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func (r *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, common.ErrConflict
	}
	u.ID = fmt.Sprintf("u%d", len(r.byID)+1)
	u.CreatedAt = time.Now()
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	return u, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

type memNotes struct {
	seq   int
	notes map[string]*models.Note
}

func (r *memNotes) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	r.seq++
	n.ID = fmt.Sprintf("note-%06d", r.seq)
	n.Visibility = models.VisibilityPrivate
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	r.notes[n.ID] = n
	return n, nil
}

func (r *memNotes) List(ctx context.Context, userID string, f notesrepo.ListFilter) ([]*models.Note, error) {
	var out []*models.Note
	for _, n := range r.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNotes) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.Note, error) {
	n, ok := r.notes[id]
	if !ok || n.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *memNotes) Update(ctx context.Context, n *models.Note) error {
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

func (r *memNotes) Delete(ctx context.Context, id string) error {
	if _, ok := r.notes[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *memNotes) SetVisibility(ctx context.Context, id string, v models.Visibility, slug, shareToken sql.NullString) error {
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

func (r *memNotes) GetBySlug(ctx context.Context, slug string) (*models.Note, error) {
	for _, n := range r.notes {
		if n.Visibility == models.VisibilityPublic && n.Slug.Valid && n.Slug.String == slug {
			cp := *n
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memNotes) GetByShareToken(ctx context.Context, token string) (*models.Note, error) {
	for _, n := range r.notes {
		if n.Visibility == models.VisibilityUnlisted && n.ShareToken.Valid && n.ShareToken.String == token {
			cp := *n
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memNotes) ListPublic(ctx context.Context, limit int) ([]*models.PublicNote, error) {
	var out []*models.PublicNote
	for _, n := range r.notes {
		if n.Visibility == models.VisibilityPublic {
			out = append(out, &models.PublicNote{
				ID: n.ID, Title: n.Title, DayKey: n.DayKey, Slug: n.Slug.String,
				CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt,
			})
		}
	}
	return out, nil
}

type memFiles struct {
	seq   int
	files map[string]*models.File
}

func (r *memFiles) Create(ctx context.Context, f *models.File) (*models.File, error) {
	r.seq++
	f.ID = fmt.Sprintf("file-%06d", r.seq)
	f.CreatedAt = time.Now()
	r.files[f.ID] = f
	return f, nil
}

func (r *memFiles) GetByIDAndOwner(ctx context.Context, id, userID string) (*models.File, error) {
	f, ok := r.files[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *memFiles) ListByNote(ctx context.Context, noteID string) ([]*models.File, error) {
	var out []*models.File
	for _, f := range r.files {
		if f.NoteID.Valid && f.NoteID.String == noteID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFiles) DetachFromNote(ctx context.Context, noteID, userID string) error {
	for _, f := range r.files {
		if f.UserID == userID && f.NoteID.Valid && f.NoteID.String == noteID {
			f.NoteID = sql.NullString{}
		}
	}
	return nil
}

func (r *memFiles) Delete(ctx context.Context, id string) error {
	if _, ok := r.files[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

type memRM struct {
	users *memUsers
	notes *memNotes
	files *memFiles
}

func newMemRM() *memRM {
	return &memRM{
		users: &memUsers{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}},
		notes: &memNotes{notes: map[string]*models.Note{}},
		files: &memFiles{files: map[string]*models.File{}},
	}
}

func (m *memRM) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *memRM) Users(db dbx.DBTX) usersrepo.Repository              { return m.users }
func (m *memRM) Notes(db dbx.DBTX) notesrepo.Repository              { return m.notes }
func (m *memRM) Files(db dbx.DBTX) filesrepo.Repository              { return m.files }

var _ repomanager.RepositoryManager = (*memRM)(nil)

type memStore struct {
	objects map[string][]byte
}

func (s *memStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) SignedPutURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "http://store/put/" + key, nil
}

func (s *memStore) SignedGetURL(ctx context.Context, key string, expires time.Duration, opts *objectstore.SignedGetOptions) (string, error) {
	return "http://store/get/" + key, nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

// --- test server ---

type apiFixture struct {
	ts     *httptest.Server
	client *http.Client
	rm     *memRM
}

func newAPIFixture(t *testing.T, mutate func(*config.Config)) *apiFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	// note deletion runs in a transaction against the real db handle
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Environment:                  "development",
		AccessTokenSecret:            "access-secret",
		RefreshTokenSecret:           "refresh-secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
		MaxUploadBytes:               1 << 20,
	}
	if mutate != nil {
		mutate(cfg)
	}

	rm := newMemRM()
	store := &memStore{objects: map[string][]byte{}}

	var limiter *ratelimit.Limiter
	if cfg.RedisURL != "" {
		// tests never talk to redis; RedisURL doubles as a switch for a
		// tiny local counter
		limiter = ratelimit.NewLimiter(&localCounter{counts: map[string]int64{}}, 2, time.Minute)
	}

	srv := NewServer(cfg, testLogger(),
		services.NewUserService(db, rm, cfg),
		services.NewNoteService(db, rm),
		services.NewFileService(db, rm, store, ""),
		limiter)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New error: %v", err)
	}

	return &apiFixture{ts: ts, client: &http.Client{Jar: jar}, rm: rm}
}

type localCounter struct {
	counts map[string]int64
}

func (c *localCounter) Incr(ctx context.Context, key string) (int64, error) {
	c.counts[key]++
	return c.counts[key], nil
}

func (c *localCounter) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func (f *apiFixture) signUpAndIn(t *testing.T, email string) {
	t.Helper()

	creds := map[string]string{"email": email, "password": "hunter2pass"}
	if resp, body := f.do(t, http.MethodPost, "/auth/register", creds, nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: %d %s", resp.StatusCode, body)
	}
	if resp, body := f.do(t, http.MethodPost, "/auth/login", creds, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %s", resp.StatusCode, body)
	}
}

func decodeBody[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal response %q: %v", data, err)
	}
	return v
}
