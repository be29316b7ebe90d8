// Package services contains server-side business logic: account
// management and ownership-checked post mutations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/framez/internal/common"
	"github.com/dmitrijs2005/framez/internal/models"
	"github.com/dmitrijs2005/framez/internal/server/auth"
	"github.com/dmitrijs2005/framez/internal/server/config"
	"github.com/dmitrijs2005/framez/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserService handles registration, login and profile updates.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates an account. The password is stored as a bcrypt hash.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("bad email: %w", common.ErrInvalidContent)
	}
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", common.ErrInvalidContent)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password shorter than %d: %w", minPasswordLength, common.ErrInvalidContent)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and returns an access token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthenticated
		}
		return "", common.ErrInternal
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrUnauthenticated
	}
	return s.generateAccessToken(user.ID, user.Name)
}

// UpdateProfile renames the user and returns a token carrying the new name.
// Existing posts keep the author name they were created with.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required: %w", common.ErrInvalidContent)
	}
	if err := s.repomanager.Users(s.db).UpdateName(ctx, userID, name); err != nil {
		return "", fmt.Errorf("error updating profile: %w", err)
	}
	return s.generateAccessToken(userID, name)
}

func (s *UserService) generateAccessToken(userID, name string) (string, error) {
	token, err := auth.GenerateToken(userID, name, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrInternal
	}
	return token, nil
}
