// Package service implements credential login and token issuing. Access
// tokens are short-lived JWTs carrying the clinic id and roles; refresh
// tokens are opaque, stored hashed, and rotated on every use.
package service

import (
	"context"
	"errors"
	"time"

	"clinicportal_backend/internal/auth/password"
	"clinicportal_backend/internal/auth/repository"
	"clinicportal_backend/internal/auth/token"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/config"
	"clinicportal_backend/platform/httpkit"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Store is the persistence surface the service needs from the repository.
type Store interface {
	CreateUser(ctx context.Context, clinicID uuid.UUID, email, passwordHash string) (repository.User, error)
	GetUserByEmail(ctx context.Context, email string) (repository.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error
	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo Store
	cfg  config.AuthServiceConfig
}

func New(repo Store, cfg config.AuthServiceConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// SignIn verifies credentials and issues a token pair. The same error is
// returned for an unknown email and a wrong password.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, apperr.Unauthorized("invalid credentials")
		}
		return TokenPair{}, storeErr("get user", err)
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked whether or
// not it is still valid, and a fresh pair is issued only when it was.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := token.Hash(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, apperr.Unauthorized("invalid refresh token")
		}
		return TokenPair{}, storeErr("get refresh token", err)
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		return TokenPair{}, storeErr("revoke refresh token", err)
	}
	if time.Now().After(expiresAt) {
		return TokenPair{}, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, storeErr("get user", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.repo.RevokeRefreshToken(ctx, token.Hash(refreshToken)); err != nil {
		return storeErr("revoke refresh token", err)
	}
	return nil
}

// CreateUser provisions a user for a clinic. Admin-only.
func (s *Service) CreateUser(ctx context.Context, clinicID uuid.UUID, email, plainPassword string, roles []string) (uuid.UUID, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, clinicID, email, hash)
	if err != nil {
		return uuid.Nil, storeErr("create user", err)
	}

	if len(roles) == 0 {
		roles = []string{"staff"}
	}
	if err := s.repo.SetUserRoles(ctx, user.ID, roles); err != nil {
		return uuid.Nil, storeErr("set user roles", err)
	}

	return user.ID, nil
}

func (s *Service) issueTokens(ctx context.Context, user repository.User) (TokenPair, error) {
	roles, err := s.repo.GetUserRoles(ctx, user.ID)
	if err != nil {
		return TokenPair{}, storeErr("get user roles", err)
	}

	access, err := s.signAccessToken(user.ID, user.ClinicID, roles)
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}

	refresh, err := token.GenerateOpaque(48)
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "generate refresh token", err)
	}

	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, user.ID, token.Hash(refresh), expiresAt); err != nil {
		return TokenPair{}, storeErr("store refresh token", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) signAccessToken(userID, clinicID uuid.UUID, roles []string) (string, error) {
	now := time.Now()
	claims := httpkit.AccessClaims{
		ClinicID: clinicID.String(),
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.GetAccessTokenTTL())),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}

func storeErr(op string, err error) error {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr
	}
	return apperr.Wrap(apperr.KindUnavailable, "persistent store unavailable", err).WithOp(op)
}
