package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/capsync/internal/artifacts"
	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/dbx"
	"github.com/dmitrijs2005/capsync/internal/server/auth"
	"github.com/dmitrijs2005/capsync/internal/server/config"
	"github.com/dmitrijs2005/capsync/internal/server/models"
	"github.com/dmitrijs2005/capsync/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/capsync/internal/server/repositories/users"
)

type fakeUserRepo struct {
	byUsername map[string]*models.User
	created    []*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	u.ID = fmt.Sprintf("user-%d", len(f.created)+1)
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeSessionRepo struct {
	inserted []*models.IssuedSession
	err      error
}

func (f *fakeSessionRepo) Insert(ctx context.Context, s *models.IssuedSession) (*models.IssuedSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	s.ID = fmt.Sprintf("session-%d", len(f.inserted)+1)
	f.inserted = append(f.inserted, s)
	return s, nil
}

func (f *fakeSessionRepo) ListByFolder(ctx context.Context, folderName string) ([]*models.IssuedSession, error) {
	var out []*models.IssuedSession
	for _, s := range f.inserted {
		if s.FolderName == folderName {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	users    *fakeUserRepo
	sessions *fakeSessionRepo
}

func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(db dbx.DBTX) users.Repository                  { return f.users }
func (f *fakeRepoManager) Sessions(db dbx.DBTX) sessions.Repository            { return f.sessions }

type fakePresigner struct {
	err  error
	keys []string
}

func (f *fakePresigner) PresignPut(ctx context.Context, key string, expires time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://storage.example/" + key + "?sig=abc", nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		TokenValidity:      time.Hour,
		SessionURIValidity: 24 * time.Hour,
	}
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{byUsername: map[string]*models.User{}}
	m := &fakeRepoManager{users: repo}
	svc := NewUserService(nil, m, testConfig())

	u, err := svc.Register(context.Background(), "alice", "pa55word")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	repo.byUsername["alice"] = u

	token, err := svc.Authenticate(context.Background(), "alice", "pa55word")
	require.NoError(t, err)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestUserService_Authenticate_WrongPassword(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("right")
	require.NoError(t, err)

	repo := &fakeUserRepo{byUsername: map[string]*models.User{
		"alice": {ID: "user-1", Username: "alice", PasswordHash: hash},
	}}
	svc := NewUserService(nil, &fakeRepoManager{users: repo}, testConfig())

	_, err = svc.Authenticate(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_Authenticate_UnknownUser(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{byUsername: map[string]*models.User{}}
	svc := NewUserService(nil, &fakeRepoManager{users: repo}, testConfig())

	_, err := svc.Authenticate(context.Background(), "nobody", "pw")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestSessionService_IssueSessionURIs(t *testing.T) {
	t.Parallel()

	p := &fakePresigner{}
	sr := &fakeSessionRepo{}
	svc := NewSessionService(nil, &fakeRepoManager{sessions: sr}, p, testConfig())

	uris, expiresAt, err := svc.IssueSessionURIs(context.Background(), "user-1", "abc123")
	require.NoError(t, err)

	require.Len(t, uris, len(artifacts.Names()))
	for _, name := range artifacts.Names() {
		assert.Equal(t, "https://storage.example/abc123/"+name+"?sig=abc", uris[name])
	}
	for _, key := range p.keys {
		assert.Contains(t, key, "abc123/")
	}

	require.Len(t, sr.inserted, 1)
	assert.Equal(t, "user-1", sr.inserted[0].UserID)
	assert.Equal(t, "abc123", sr.inserted[0].FolderName)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)
}

func TestSessionService_IssueSessionURIs_PresignError(t *testing.T) {
	t.Parallel()

	p := &fakePresigner{err: errors.New("s3 unavailable")}
	sr := &fakeSessionRepo{}
	svc := NewSessionService(nil, &fakeRepoManager{sessions: sr}, p, testConfig())

	_, _, err := svc.IssueSessionURIs(context.Background(), "user-1", "abc123")
	require.Error(t, err)
	assert.Empty(t, sr.inserted)
}

func TestSessionService_IssueSessionURIs_AuditError(t *testing.T) {
	t.Parallel()

	p := &fakePresigner{}
	sr := &fakeSessionRepo{err: errors.New("db down")}
	svc := NewSessionService(nil, &fakeRepoManager{sessions: sr}, p, testConfig())

	_, _, err := svc.IssueSessionURIs(context.Background(), "user-1", "abc123")
	require.Error(t, err)
}
