// Package auth issues and verifies the JWT access and refresh tokens and
// hashes user passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/server/models"
)

// AccessClaims identify the caller on every protected request.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// RefreshClaims carry only the user id; RegisteredClaims.ID is the jti
// recorded in the refresh token ledger.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// RefreshToken is a signed refresh token and the ledger data for it.
type RefreshToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Issuer signs both token kinds with distinct HS256 secrets.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *Issuer) AccessToken(user *models.User) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})

	return token.SignedString(i.accessSecret)
}

func (i *Issuer) RefreshToken(userID string) (*RefreshToken, error) {
	now := i.now()
	rt := &RefreshToken{
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(i.refreshTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rt.JTI,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(rt.ExpiresAt),
		},
		UserID: userID,
	})

	s, err := token.SignedString(i.refreshSecret)
	if err != nil {
		return nil, err
	}
	rt.Token = s
	return rt, nil
}

// ParseAccess verifies an access token. Failures are common.ErrTokenExpired
// or common.ErrInvalidToken.
func (i *Issuer) ParseAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(tokenString, claims, i.accessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token. Tokens without a jti are rejected.
func (i *Issuer) ParseRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(tokenString, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
