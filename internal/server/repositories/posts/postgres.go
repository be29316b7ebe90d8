// Package posts stores the posts collection in PostgreSQL.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/dbx"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalidTextRepresentation is raised when an id is not a valid uuid.
const invalidTextRepresentation = "22P02"

func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

const selectColumns = `SELECT id, user_id, author_name, content, image_url, created_at FROM posts`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts post with a new id; created_at is assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (id, user_id, author_name, content, image_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`

	post.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, query, post.ID, post.UserID, post.AuthorName, post.Content, nullString(post.ImageURL)).
		Scan(&post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)

	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post[%s]: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateContent(ctx context.Context, id, content string) error {
	return r.execOne(ctx, `UPDATE posts SET content = $2 WHERE id = $1`, "update", id, content)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM posts WHERE id = $1`, "delete", id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query, op, id string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if isInvalidID(err) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to %s post[%s]: %w", op, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s post[%s]: %w", op, id, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Select returns posts matching filter. Query is matched case-insensitively
// against content or author_name, with LIKE wildcards in it escaped. A
// malformed id or user id matches nothing.
func (r *PostgresRepository) Select(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	query, args := buildSelect(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if isInvalidID(err) {
		return []*models.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select posts: %w", err)
	}

	posts, err := dbx.CollectRows(rows, func(rows *sql.Rows) (*models.Post, error) {
		return scanPost(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	return posts, nil
}

func buildSelect(filter models.PostFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ID != "" {
		where = append(where, "id = "+next(filter.ID))
	}
	if filter.UserID != "" {
		where = append(where, "user_id = "+next(filter.UserID))
	}
	if filter.Query != "" {
		p := next("%" + escapeLike(filter.Query) + "%")
		where = append(where, fmt.Sprintf(`(content ILIKE %s ESCAPE '\' OR author_name ILIKE %s ESCAPE '\')`, p, p))
	}

	var b strings.Builder
	b.WriteString(selectColumns)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if filter.Order == models.OldestFirst {
		b.WriteString(" ORDER BY created_at ASC, id ASC")
	} else {
		b.WriteString(" ORDER BY created_at DESC, id DESC")
	}
	if filter.Limit > 0 {
		b.WriteString(" LIMIT " + next(filter.Limit))
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	p := &models.Post{}
	var image sql.NullString
	if err := s.Scan(&p.ID, &p.UserID, &p.AuthorName, &p.Content, &image, &p.CreatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		p.ImageURL = &image.String
	}
	return p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
