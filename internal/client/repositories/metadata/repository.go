// Package metadata is the client's local key/value store. It keeps the
// recent-search list, the theme flag and the session token.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
)

// Well-known keys.
const (
	KeyRecentSearches = "recent_searches"
	KeyTheme          = "app_theme"
	KeySessionToken   = "session_token"
)

// Repository stores opaque values by key. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into dst. It reports false when the
// key is absent.
func GetJSON[T any](ctx context.Context, r Repository, key string, dst *T) (bool, error) {
	raw, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode metadata[%s]: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key as JSON.
func SetJSON(ctx context.Context, r Repository, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode metadata[%s]: %w", key, err)
	}
	return r.Set(ctx, key, raw)
}
