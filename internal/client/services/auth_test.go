package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/framez/internal/client/client"
	"github.com/dmitrijs2005/framez/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/framez/internal/client/session"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

func setupRepo(t *testing.T) *metadata.SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);
`)
	require.NoError(t, err)
	return metadata.NewSQLiteRepository(db)
}

type fixture struct {
	repo    *metadata.SQLiteRepository
	sess    *session.Session
	backend *client.MemoryStore
	svc     AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := setupRepo(t)
	sess := session.New()
	backend := client.NewMemoryStore(sess)
	return &fixture{repo: repo, sess: sess, backend: backend, svc: NewAuthService(backend, repo, sess)}
}

// ---- fake client ----

type fakeClient struct {
	client.Client
	pingErr  error
	closed   bool
	loginErr error
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }
func (f *fakeClient) Close() error               { f.closed = true; return nil }
func (f *fakeClient) Login(context.Context, string, string) (string, error) {
	return "", f.loginErr
}

// ---- tests ----

func TestRegisterAndLogin_PersistsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Register(ctx, " a@x.io ", " Alice ", "secret1"))

	id, err := f.svc.Login(ctx, "a@x.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", id.Name)
	assert.NotEmpty(t, id.UserID)

	saved, err := f.repo.Get(ctx, metadata.KeySessionToken)
	require.NoError(t, err)
	assert.Equal(t, f.sess.Token(), string(saved))
}

func TestRegister_RequiresName(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.svc.Register(context.Background(), "a@x.io", "  ", "secret1"), common.ErrInvalidContent)
}

func TestLogin_BadPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Register(ctx, "a@x.io", "Alice", "secret1"))

	_, err := f.svc.Login(ctx, "a@x.io", "nope")
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	_, ok := f.sess.Identity()
	assert.False(t, ok)
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok := f.svc.Restore(ctx)
	assert.False(t, ok)

	require.NoError(t, f.svc.Register(ctx, "a@x.io", "Alice", "secret1"))
	want, err := f.svc.Login(ctx, "a@x.io", "secret1")
	require.NoError(t, err)

	fresh := session.New()
	restored := NewAuthService(f.backend, f.repo, fresh)
	got, ok := restored.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, f.sess.Token(), fresh.Token())
}

func TestRestore_DropsGarbageToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Set(ctx, metadata.KeySessionToken, []byte("garbage")))

	_, ok := f.svc.Restore(ctx)
	assert.False(t, ok)

	raw, err := f.repo.Get(ctx, metadata.KeySessionToken)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Register(ctx, "a@x.io", "Alice", "secret1"))
	_, err := f.svc.Login(ctx, "a@x.io", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx))
	_, ok := f.sess.Identity()
	assert.False(t, ok)
	_, ok = f.svc.Restore(ctx)
	assert.False(t, ok)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Register(ctx, "a@x.io", "Alice", "secret1"))
	before, err := f.svc.Login(ctx, "a@x.io", "secret1")
	require.NoError(t, err)

	after, err := f.svc.UpdateProfile(ctx, " Alicia ")
	require.NoError(t, err)
	assert.Equal(t, before.UserID, after.UserID)
	assert.Equal(t, "Alicia", after.Name)

	saved, err := f.repo.Get(ctx, metadata.KeySessionToken)
	require.NoError(t, err)
	id, err := session.DecodeIdentity(string(saved))
	require.NoError(t, err)
	assert.Equal(t, "Alicia", id.Name)

	_, err = f.svc.UpdateProfile(ctx, "")
	require.ErrorIs(t, err, common.ErrInvalidContent)
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateProfile(context.Background(), "Bob")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestPingAndClose(t *testing.T) {
	fc := &fakeClient{pingErr: common.ErrUnavailable}
	svc := NewAuthService(fc, setupRepo(t), session.New())

	require.ErrorIs(t, svc.Ping(context.Background()), common.ErrUnavailable)
	require.NoError(t, svc.Close(context.Background()))
	assert.True(t, fc.closed)
}

func TestLogin_WrapsClientError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewAuthService(&fakeClient{loginErr: boom}, setupRepo(t), session.New())

	_, err := svc.Login(context.Background(), "a@x.io", "x")
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "login error")
}
