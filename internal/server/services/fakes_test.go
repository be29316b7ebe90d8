package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/dbx"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/dmitrijs2005/framez/internal/server/repositories/posts"
	"github.com/dmitrijs2005/framez/internal/server/repositories/users"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	byEmail   map[string]*models.User
	createErr error
	getErr    error
	renamed   map[string]string
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}, renamed: map[string]string{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-" + u.Email
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(context.Context, string) (*models.User, error) {
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) UpdateName(_ context.Context, id, name string) error {
	if id == "missing" {
		return common.ErrNotFound
	}
	f.renamed[id] = name
	return nil
}

type fakePostsRepo struct {
	rows      map[string]*models.Post
	createErr error
	updated   map[string]string
	deleted   []string
	lastQuery models.PostFilter
}

func newFakePostsRepo(rows ...*models.Post) *fakePostsRepo {
	f := &fakePostsRepo{rows: map[string]*models.Post{}, updated: map[string]string{}}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakePostsRepo) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = "new"
	p.CreatedAt = time.Now()
	f.rows[p.ID] = p
	return p, nil
}

func (f *fakePostsRepo) GetByID(_ context.Context, id string) (*models.Post, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (f *fakePostsRepo) UpdateContent(_ context.Context, id, content string) error {
	f.updated[id] = content
	return nil
}

func (f *fakePostsRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.rows, id)
	return nil
}

func (f *fakePostsRepo) Select(_ context.Context, filter models.PostFilter) ([]*models.Post, error) {
	f.lastQuery = filter
	var out []*models.Post
	for _, p := range f.rows {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakePostsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.u }
func (m *fakeRepoManager) Posts(dbx.DBTX) posts.Repository             { return m.p }
