package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/dbx"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/dmitrijs2005/framez/internal/server/repositories/repomanager"
)

// PostService is the authoritative owner check for post mutations.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager) *PostService {
	return &PostService{db: db, repomanager: m}
}

// Create stores post on behalf of identity. The owner always comes from
// the identity; the author name falls back to the identity's name.
func (s *PostService) Create(ctx context.Context, identity models.Identity, post *models.Post) (*models.Post, error) {
	post.UserID = identity.UserID
	if post.AuthorName == "" {
		post.AuthorName = identity.Name
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Posts(s.db).Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	return created, nil
}

// Update applies patch to post id if userID owns it.
func (s *PostService) Update(ctx context.Context, userID, id string, patch models.PostPatch) error {
	if patch.Content == nil {
		return fmt.Errorf("nothing to update: %w", common.ErrInvalidContent)
	}
	content, err := models.NormalizeContent(*patch.Content)
	if err != nil {
		return err
	}
	if content == "" {
		return fmt.Errorf("content is empty: %w", common.ErrInvalidContent)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)
		if err := checkOwner(ctx, repo.GetByID, userID, id); err != nil {
			return err
		}
		return repo.UpdateContent(ctx, id, content)
	})
}

// Delete removes post id if userID owns it.
func (s *PostService) Delete(ctx context.Context, userID, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)
		if err := checkOwner(ctx, repo.GetByID, userID, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

func (s *PostService) Select(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	return s.repomanager.Posts(s.db).Select(ctx, filter)
}

func checkOwner(ctx context.Context, get func(context.Context, string) (*models.Post, error), userID, id string) error {
	p, err := get(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return fmt.Errorf("post[%s] belongs to another user: %w", id, common.ErrAuthorization)
	}
	return nil
}
