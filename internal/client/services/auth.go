// Package services contains application services for the Framez client.
// This file defines the authentication service: register, login, session
// restore across runs, logout and profile updates.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/framez/internal/client/client"
	"github.com/dmitrijs2005/framez/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/framez/internal/client/session"
	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/models"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the backend and persist the token locally.
//   - Restore: resume the session saved by a previous Login.
//   - Logout: forget the session, locally and in memory.
//   - UpdateProfile: change the display name used for future posts.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, email, name, password string) error
	Login(ctx context.Context, email, password string) (models.Identity, error)
	Restore(ctx context.Context) (models.Identity, bool)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, name string) (models.Identity, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client  client.Client
	repo    metadata.Repository
	session *session.Session
}

// NewAuthService constructs an AuthService bound to the given API client,
// local metadata repository and session.
func NewAuthService(c client.Client, repo metadata.Repository, sess *session.Session) AuthService {
	return &authService{client: c, repo: repo, session: sess}
}

func (a *authService) Register(ctx context.Context, email, name, password string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required: %w", common.ErrInvalidContent)
	}
	return a.client.Register(ctx, strings.TrimSpace(email), strings.TrimSpace(name), password)
}

func (a *authService) Login(ctx context.Context, email, password string) (models.Identity, error) {
	token, err := a.client.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return models.Identity{}, fmt.Errorf("login error: %w", err)
	}
	return a.adopt(ctx, token)
}

// adopt makes token the current session and saves it.
func (a *authService) adopt(ctx context.Context, token string) (models.Identity, error) {
	if err := a.session.Set(token); err != nil {
		return models.Identity{}, err
	}
	if err := a.repo.Set(ctx, metadata.KeySessionToken, []byte(token)); err != nil {
		return models.Identity{}, fmt.Errorf("session saving error: %w", err)
	}
	id, _ := a.session.Identity()
	return id, nil
}

// Restore loads a saved token. A token that no longer decodes is dropped.
func (a *authService) Restore(ctx context.Context) (models.Identity, bool) {
	raw, err := a.repo.Get(ctx, metadata.KeySessionToken)
	if err != nil || len(raw) == 0 {
		return models.Identity{}, false
	}
	if err := a.session.Set(string(raw)); err != nil {
		_ = a.repo.Delete(ctx, metadata.KeySessionToken)
		return models.Identity{}, false
	}
	return a.session.Identity()
}

func (a *authService) Logout(ctx context.Context) error {
	a.session.Clear()
	return a.repo.Delete(ctx, metadata.KeySessionToken)
}

func (a *authService) UpdateProfile(ctx context.Context, name string) (models.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Identity{}, fmt.Errorf("name is required: %w", common.ErrInvalidContent)
	}
	token, err := a.client.UpdateProfile(ctx, name)
	if err != nil {
		return models.Identity{}, err
	}
	return a.adopt(ctx, token)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
