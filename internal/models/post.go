// Package models holds the domain and wire types shared by the Framez
// client and server.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/framez/internal/common"
)

// MaxContentLength is the maximum post length in characters.
const MaxContentLength = 500

// Post is a row of the posts collection. AuthorName is copied from the
// author's profile at creation and never re-synced.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	ImageURL   *string   `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasImage reports whether the post references an uploaded blob.
func (p *Post) HasImage() bool {
	return p.ImageURL != nil && *p.ImageURL != ""
}

// NormalizeContent trims content and checks its length.
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", fmt.Errorf("content exceeds %d characters: %w", MaxContentLength, common.ErrInvalidContent)
	}
	return content, nil
}

// Validate checks the content/image invariant on a post about to be stored.
func (p *Post) Validate() error {
	content, err := NormalizeContent(p.Content)
	if err != nil {
		return err
	}
	if content == "" && !p.HasImage() {
		return fmt.Errorf("post needs content or an image: %w", common.ErrInvalidContent)
	}
	p.Content = content
	return nil
}

// PostPatch is a partial update. Only content is mutable; the image is
// fixed at creation.
type PostPatch struct {
	Content *string `json:"content,omitempty"`
}

// SortOrder selects the created_at ordering of a query.
type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// PostFilter narrows a select. Zero values mean "no constraint"; Limit 0
// means unlimited.
type PostFilter struct {
	ID     string    `json:"id,omitempty"`
	UserID string    `json:"user_id,omitempty"`
	Query  string    `json:"query,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Order  SortOrder `json:"order,omitempty"`
}

// Matches applies the filter to p the way the SQL store does: Query is a
// case-insensitive substring over content or author name.
func (f PostFilter) Matches(p *Post) bool {
	if f.ID != "" && p.ID != f.ID {
		return false
	}
	if f.UserID != "" && p.UserID != f.UserID {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Content), q) &&
			!strings.Contains(strings.ToLower(p.AuthorName), q) {
			return false
		}
	}
	return true
}
