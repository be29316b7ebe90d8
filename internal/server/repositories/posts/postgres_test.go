package posts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var postCols = []string{"id", "user_id", "author_name", "content", "image_url", "created_at"}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+posts\s*\(id,\s*user_id,\s*author_name,\s*content,\s*image_url\).*RETURNING\s+created_at$`).
		WithArgs(sqlmock.AnyArg(), "u1", "Alice", "hello", sql.NullString{}).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	p, err := repo.Create(context.Background(), &models.Post{UserID: "u1", AuthorName: "Alice", Content: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.CreatedAt.Equal(created))
	assert.Nil(t, p.ImageURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_WithImage(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	url := "http://cdn/post-images/u1/1.png"

	mock.ExpectQuery(`INSERT\s+INTO\s+posts`).
		WithArgs(sqlmock.AnyArg(), "u1", "Alice", "", sql.NullString{String: url, Valid: true}).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	_, err := repo.Create(context.Background(), &models.Post{UserID: "u1", AuthorName: "Alice", ImageURL: &url})
	require.NoError(t, err)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT\s+INTO\s+posts`).WillReturnError(errors.New("check violation"))

	_, err := repo.Create(context.Background(), &models.Post{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create post")
}

func TestGetByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*user_id,\s*author_name,\s*content,\s*image_url,\s*created_at\s+FROM\s+posts\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("found with image", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("p1").
			WillReturnRows(sqlmock.NewRows(postCols).AddRow("p1", "u1", "Alice", "hi", "http://x/a.png", time.Now()))

		p, err := repo.GetByID(context.Background(), "p1")
		require.NoError(t, err)
		require.NotNil(t, p.ImageURL)
		assert.Equal(t, "http://x/a.png", *p.ImageURL)
	})

	t.Run("found without image", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("p1").
			WillReturnRows(sqlmock.NewRows(postCols).AddRow("p1", "u1", "Alice", "hi", nil, time.Now()))

		p, err := repo.GetByID(context.Background(), "p1")
		require.NoError(t, err)
		assert.Nil(t, p.ImageURL)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("p9").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "p9")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("p1").WillReturnError(errors.New("down"))

		_, err := repo.GetByID(context.Background(), "p1")
		require.Error(t, err)
		assert.Regexp(t, regexp.MustCompile(`failed to get post\[p1\]: down`), err.Error())
	})
}

func TestUpdateContent(t *testing.T) {
	q := `^UPDATE\s+posts\s+SET\s+content\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`

	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(q).WithArgs("p1", "edited").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateContent(context.Background(), "p1", "edited"))

	mock.ExpectExec(q).WithArgs("p2", "edited").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateContent(context.Background(), "p2", "edited"), common.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	q := `^DELETE\s+FROM\s+posts\s+WHERE\s+id\s*=\s*\$1$`

	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(q).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "p1"))

	mock.ExpectExec(q).WithArgs("p1").WillReturnError(errors.New("down"))
	err := repo.Delete(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete post[p1]")
}

func TestSelect_SearchNewestFirstLimited(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM\s+posts\s+WHERE\s+\(content\s+ILIKE\s+\$1\s+ESCAPE\s+'\\'\s+OR\s+author_name\s+ILIKE\s+\$1\s+ESCAPE\s+'\\'\)\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC\s+LIMIT\s+\$2$`).
		WithArgs("%cat%", 50).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("p3", "u2", "Cathy", "sunny", nil, now).
			AddRow("p2", "u1", "Bob", "my cat", nil, now.Add(-time.Minute)).
			AddRow("p1", "u1", "Bob", "Cat nap", nil, now.Add(-2*time.Minute)))

	got, err := repo.Select(context.Background(), models.PostFilter{Query: "cat", Limit: 50})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"p3", "p2", "p1"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSelect_ByUserOldestFirst(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+ASC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(postCols))

	got, err := repo.Select(context.Background(), models.PostFilter{UserID: "u1", Order: models.OldestFirst})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelect_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+posts`).WillReturnError(errors.New("down"))

	_, err := repo.Select(context.Background(), models.PostFilter{})
	require.Error(t, err)
}

func TestMalformedID_IsNotFound(t *testing.T) {
	badID := &pgconn.PgError{Code: invalidTextRepresentation, Message: `invalid input syntax for type uuid: "nope"`}
	ctx := context.Background()

	t.Run("get", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+posts\s+WHERE\s+id`).WithArgs("nope").WillReturnError(badID)

		_, err := repo.GetByID(ctx, "nope")
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`UPDATE\s+posts`).WithArgs("nope", "x").WillReturnError(badID)

		require.ErrorIs(t, repo.UpdateContent(ctx, "nope", "x"), common.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE\s+FROM\s+posts`).WithArgs("nope").WillReturnError(badID)

		require.ErrorIs(t, repo.Delete(ctx, "nope"), common.ErrNotFound)
	})

	t.Run("select", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+posts`).WithArgs("nope").WillReturnError(badID)

		posts, err := repo.Select(ctx, models.PostFilter{ID: "nope"})
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("other pg errors are not masked", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE\s+FROM\s+posts`).WithArgs("p1").WillReturnError(&pgconn.PgError{Code: "57P01"})

		err := repo.Delete(ctx, "p1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrNotFound)
	})
}

func TestBuildSelect_AllFilters(t *testing.T) {
	q, args := buildSelect(models.PostFilter{ID: "p1", UserID: "u1", Query: "50%_off", Limit: 5})

	assert.Contains(t, q, "id = $1 AND user_id = $2 AND (content ILIKE $3")
	assert.Contains(t, q, "LIMIT $4")
	assert.Equal(t, []any{"p1", "u1", `%50\%\_off%`, 5}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
}
