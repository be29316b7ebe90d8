// Package posts creates, edits and deletes the signed-in user's posts.
// It never touches the feed snapshot; the change stream brings edits back.
package posts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/framez/internal/client/client"
	"github.com/dmitrijs2005/framez/internal/client/objectstore"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/logging"
	"github.com/dmitrijs2005/framez/internal/models"
)

type Uploader interface {
	Upload(ctx context.Context, localRef, ownerID string) (string, error)
}

type IdentitySource interface {
	Identity() (models.Identity, bool)
}

// ConfirmFunc asks the user to confirm deleting post.
type ConfirmFunc func(ctx context.Context, post *models.Post) bool

type Service struct {
	store    client.ContentStore
	objects  objectstore.Store
	uploader Uploader
	identity IdentitySource
	logger   logging.Logger
}

func NewService(store client.ContentStore, objects objectstore.Store, uploader Uploader, identity IdentitySource, l logging.Logger) *Service {
	return &Service{
		store:    store,
		objects:  objects,
		uploader: uploader,
		identity: identity,
		logger:   l.With("module", "posts"),
	}
}

func (s *Service) whoami() (models.Identity, error) {
	id, ok := s.identity.Identity()
	if !ok {
		return models.Identity{}, common.ErrUnauthenticated
	}
	return id, nil
}

// CanModify reports whether the signed-in user owns post.
func (s *Service) CanModify(post *models.Post) bool {
	id, ok := s.identity.Identity()
	return ok && post != nil && post.UserID == id.UserID
}

// Create publishes a post. When imageRef is set the image is uploaded
// first; an upload failure means no row is written.
func (s *Service) Create(ctx context.Context, content, imageRef string) (*models.Post, error) {
	id, err := s.whoami()
	if err != nil {
		return nil, err
	}

	content, err = models.NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	if content == "" && imageRef == "" {
		return nil, fmt.Errorf("post needs content or an image: %w", common.ErrInvalidContent)
	}

	post := &models.Post{UserID: id.UserID, AuthorName: id.Name, Content: content}

	if imageRef != "" {
		url, err := s.uploader.Upload(ctx, imageRef, id.UserID)
		if err != nil {
			return nil, err
		}
		post.ImageURL = &url
	}

	if _, err := s.store.Insert(ctx, post); err != nil {
		if post.HasImage() {
			path, _ := s.objects.PathFromURL(*post.ImageURL)
			s.logger.Warn(ctx, "orphaned image blob", "path", path, "error", err)
		}
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	s.logger.Info(ctx, "post created", "id", post.ID, "image", post.HasImage())
	return post, nil
}

// get loads post id and checks that the caller owns it.
func (s *Service) get(ctx context.Context, id string) (*models.Post, error) {
	who, err := s.whoami()
	if err != nil {
		return nil, err
	}

	rows, err := s.store.Select(ctx, models.PostFilter{ID: id, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to get post[%s]: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("post[%s]: %w", id, common.ErrNotFound)
	}

	post := rows[0]
	if post.UserID != who.UserID {
		return nil, fmt.Errorf("post[%s]: %w", id, common.ErrAuthorization)
	}
	return post, nil
}

// Edit replaces the content of the caller's post.
func (s *Service) Edit(ctx context.Context, id, content string) error {
	content, err := models.NormalizeContent(content)
	if err != nil {
		return err
	}
	if content == "" {
		return fmt.Errorf("content is empty: %w", common.ErrInvalidContent)
	}

	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	if err := s.store.Update(ctx, id, models.PostPatch{Content: &content}); err != nil {
		return fmt.Errorf("failed to update post[%s]: %w", id, err)
	}

	s.logger.Info(ctx, "post edited", "id", id)
	return nil
}

// Delete removes the caller's post after confirm agrees. The image blob,
// if any, is removed first; a failed removal is logged and the row is
// deleted anyway.
func (s *Service) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	post, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if confirm == nil || !confirm(ctx, post) {
		return common.ErrNotConfirmed
	}

	if post.HasImage() {
		s.removeImage(ctx, *post.ImageURL)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post[%s]: %w", id, err)
	}

	s.logger.Info(ctx, "post deleted", "id", id)
	return nil
}

func (s *Service) removeImage(ctx context.Context, url string) {
	path, ok := s.objects.PathFromURL(url)
	if !ok {
		s.logger.Warn(ctx, "image url outside object store, not removed", "url", url)
		return
	}
	if err := s.objects.Remove(ctx, path); err != nil {
		s.logger.Warn(ctx, "image removal failed", "path", path, "error", err)
	}
}

// ListByOwner returns userID's posts newest first. An empty userID means
// the signed-in user.
func (s *Service) ListByOwner(ctx context.Context, userID string) ([]*models.Post, error) {
	if userID == "" {
		who, err := s.whoami()
		if err != nil {
			return nil, err
		}
		userID = who.UserID
	}

	rows, err := s.store.Select(ctx, models.PostFilter{UserID: userID, Order: models.NewestFirst})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts of %s: %w", userID, err)
	}
	return rows, nil
}
