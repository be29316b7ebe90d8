package posts

import (
	"context"

	"github.com/dmitrijs2005/framez/internal/models"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
	Select(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
}
