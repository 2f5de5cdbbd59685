// Package services implements the sessiond business logic on top of the
// repositories and the object-storage presigner.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/server/auth"
	"github.com/dmitrijs2005/capsync/internal/server/config"
	"github.com/dmitrijs2005/capsync/internal/server/models"
	"github.com/dmitrijs2005/capsync/internal/server/repositories/repomanager"
)

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		jwtSecret:     []byte(cfg.JWTSecret),
		tokenValidity: cfg.TokenValidity,
	}
}

// Register creates a new account with an argon2id password hash.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
	}

	repo := s.repomanager.Users(s.db)

	user, err = repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Authenticate checks the credentials and returns a signed bearer token.
// Unknown users and wrong passwords both map to common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (string, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	return token, nil
}

// ValidateToken returns the user id carried by a bearer token.
func (s *UserService) ValidateToken(tokenString string) (string, error) {
	return auth.GetUserIDFromToken(tokenString, s.jwtSecret)
}
