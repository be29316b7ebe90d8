package client

import (
	"context"

	"github.com/dmitrijs2005/framez/internal/models"
)

// Client is the account side of the backend.
type Client interface {
	Close() error
	Register(ctx context.Context, email, name, password string) error
	Login(ctx context.Context, email, password string) (string, error)
	UpdateProfile(ctx context.Context, name string) (string, error)
	Ping(ctx context.Context) error
}

// ContentStore is the remote, multi-writer posts collection. The acting
// identity is implied by the session the store was built with.
type ContentStore interface {
	Insert(ctx context.Context, post *models.Post) (string, error)
	Update(ctx context.Context, id string, patch models.PostPatch) error
	Delete(ctx context.Context, id string) error
	Select(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
	Subscribe(ctx context.Context, collection string, mask models.EventMask) (Subscription, error)
}

// Subscription is an open change stream. Events is closed once the stream
// ends, either by Close or by the remote side. No event is delivered after
// Close returns.
type Subscription interface {
	Events() <-chan models.ChangeEvent
	Close() error
}

// Backend bundles both halves, as implemented by GRPCClient and MemoryStore.
type Backend interface {
	Client
	ContentStore
}
