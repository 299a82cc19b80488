// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing, rotating and
// revoking JWT token pairs backed by the refresh token ledger.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/dbx"
	"github.com/dmitrijs2005/arcms/internal/server/auth"
	"github.com/dmitrijs2005/arcms/internal/server/models"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/repomanager"
)

const invalidCredentials = "Invalid email or password"

var checkNoPassword = auth.CheckNoPassword

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService provides authentication-related operations:
// - Register / Login: create and verify users
// - IssueTokens / Refresh / Logout: mint, rotate and revoke token pairs
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		issuer:      issuer,
	}
}

// Register creates a USER with a bcrypt hash of password. A taken email
// yields common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.PublicUser, error) {
	if len(password) > auth.MaxPasswordBytes {
		return nil, common.NewValidationError("password", fmt.Sprintf("must not exceed %d bytes", auth.MaxPasswordBytes))
	}

	email = normalizeEmail(email)
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, common.WithMessage(common.ErrorConflict, "User with this email already exists")
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash, Role: models.RoleUser})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.WithMessage(common.ErrorConflict, "User with this email already exists")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u.Public(), nil
}

// Login verifies credentials. Unknown email and wrong password fail the
// same way.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.PublicUser, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			checkNoPassword(password)
			return nil, common.WithMessage(common.ErrorUnauthorized, invalidCredentials)
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}
	if len(password) > auth.MaxPasswordBytes {
		checkNoPassword(password)
		return nil, common.WithMessage(common.ErrorUnauthorized, invalidCredentials)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return nil, common.WithMessage(common.ErrorUnauthorized, invalidCredentials)
	}
	return user.Public(), nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.PublicUser, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.WithMessage(common.ErrorNotFound, "User not found")
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return u.Public(), nil
}

// IssueTokens signs a new pair for user and records the refresh jti.
func (s *UserService) IssueTokens(ctx context.Context, user *models.PublicUser) (*TokenPair, error) {
	return s.generateTokenPair(ctx, user, s.db)
}

// Refresh exchanges a refresh token for a new pair. The presented token's
// ledger row is consumed in the same transaction that records the new one,
// so every refresh token works once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.RefreshTokens(tx)

		stored, err := tokens.Find(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRefreshTokenRevoked
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if stored.UserID != claims.UserID {
			return common.ErrInvalidToken
		}
		if err := tokens.Delete(ctx, claims.ID); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.WithMessage(common.ErrorUnauthorized, "User not found")
			}
			return fmt.Errorf("error loading user: %w", err)
		}

		pair, err = s.generateTokenPair(ctx, user.Public(), tx)
		return err
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes refreshToken. Tokens that do not verify are ignored.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil
	}
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// PurgeExpiredTokens removes ledger rows past their expiry.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx)
}

// --- helpers below ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.PublicUser, db dbx.DBTX) (*TokenPair, error) {
	access, err := s.issuer.AccessToken(&models.User{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}
	refresh, err := s.issuer.RefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}

	err = s.repomanager.RefreshTokens(db).Create(ctx, &models.RefreshToken{
		ID:        refresh.JTI,
		UserID:    user.ID,
		ExpiresAt: refresh.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}
