// Package services contains the server-side business logic layered between
// the HTTP handlers and the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/savelyev/securesms/internal/common"
	"github.com/savelyev/securesms/internal/server/auth"
	"github.com/savelyev/securesms/internal/server/config"
	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/repositories/repomanager"
)

// UserService handles account registration and the single-factor API login
// that mints JWTs for programmatic clients. The interactive web login goes
// through the mfa package instead.
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, email, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorInternal)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorInternal, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		UserName:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, err
	}

	return created, nil
}

// APILogin verifies credentials and returns a signed access token. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *UserService) APILogin(ctx context.Context, username, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return token, nil
}
