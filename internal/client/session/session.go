// Package session holds the client's current access token and the identity
// decoded from it. Token signature checks are the server's job; the client
// only reads the claims.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Session is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	token    string
	identity models.Identity
}

func New() *Session {
	return &Session{}
}

// Set replaces the token and decodes the identity it carries.
func (s *Session) Set(token string) error {
	id, err := DecodeIdentity(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = id
	return nil
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = models.Identity{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the signed-in identity, or false when signed out.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.token != ""
}

// DecodeIdentity reads the user id and display name from token without
// verifying its signature.
func DecodeIdentity(token string) (models.Identity, error) {
	c := &claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, c); err != nil {
		return models.Identity{}, errors.Join(common.ErrInvalidToken, err)
	}
	if c.UserID == "" {
		return models.Identity{}, fmt.Errorf("token has no user id: %w", common.ErrInvalidToken)
	}
	return models.Identity{UserID: c.UserID, Name: c.Name}, nil
}
