// Package settings persists client preferences.
package settings

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/framez/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/framez/internal/common"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q: %w", s, common.ErrInvalidContent)
}

type Service struct {
	repo metadata.Repository
}

func NewService(repo metadata.Repository) *Service {
	return &Service{repo: repo}
}

// Theme returns the stored theme, Light when none or an unknown one is
// stored.
func (s *Service) Theme(ctx context.Context) (Theme, error) {
	raw, err := s.repo.Get(ctx, metadata.KeyTheme)
	if err != nil {
		return Light, err
	}
	t, err := ParseTheme(string(raw))
	if err != nil {
		return Light, nil
	}
	return t, nil
}

func (s *Service) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return s.repo.Set(ctx, metadata.KeyTheme, []byte(t))
}

// Toggle flips between light and dark and returns the new theme.
func (s *Service) Toggle(ctx context.Context) (Theme, error) {
	cur, err := s.Theme(ctx)
	if err != nil {
		return cur, err
	}
	next := Dark
	if cur == Dark {
		next = Light
	}
	if err := s.SetTheme(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}
