package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mayuuuu918/nagoyameshi/internal/repository"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

// ErrInvalidCredentials is returned for a wrong email or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenPair is what a successful login or refresh hands out.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthConfig carries the token settings of both principal spaces.
type AuthConfig struct {
	MemberSecret   string
	AdminSecret    string
	AccessTTLMin   int
	RefreshTTLDays int
}

// AuthService issues and revokes credentials.  Members and administrators
// authenticate against their own tables and receive tokens that only
// verify in their own space.
type AuthService struct {
	Members *repository.MemberRepo
	Admins  *repository.AdminRepo
	Tokens  *repository.TokenRepo
	Cfg     AuthConfig
}

func NewAuthService(m *repository.MemberRepo, a *repository.AdminRepo, t *repository.TokenRepo, cfg AuthConfig) *AuthService {
	return &AuthService{Members: m, Admins: a, Tokens: t, Cfg: cfg}
}

// Login checks email and password in space and returns the principal id
// with a fresh token pair.
func (s *AuthService) Login(ctx context.Context, space utils.Space, email, password string) (uint64, TokenPair, error) {
	var (
		id   uint64
		hash string
	)
	switch space {
	case utils.SpaceMember:
		m, err := s.Members.GetByEmail(ctx, email)
		if err != nil {
			return 0, TokenPair{}, credentialError(err)
		}
		id, hash = m.ID, m.PasswordHash
	case utils.SpaceAdmin:
		a, err := s.Admins.GetByEmail(ctx, email)
		if err != nil {
			return 0, TokenPair{}, credentialError(err)
		}
		id, hash = a.ID, a.PasswordHash
	default:
		return 0, TokenPair{}, fmt.Errorf("unknown space %q", space)
	}
	if !utils.VerifyPassword(hash, password) {
		return 0, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.Issue(ctx, space, id)
	return id, pair, err
}

// Issue mints an access token and stores a new refresh token for id.
func (s *AuthService) Issue(ctx context.Context, space utils.Space, id uint64) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.secret(space), space, id, s.Cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.Cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.Tokens.StoreRefresh(ctx, space, id, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a live refresh token for a new pair, revoking the old
// one.
func (s *AuthService) Refresh(ctx context.Context, space utils.Space, raw string) (uint64, TokenPair, error) {
	hash := utils.HashRefreshRaw(raw)
	id, err := s.Tokens.ValidateRefresh(ctx, space, hash)
	if err != nil {
		return 0, TokenPair{}, err
	}
	if err := s.Tokens.RevokeByHash(ctx, space, hash); err != nil {
		return 0, TokenPair{}, err
	}
	pair, err := s.Issue(ctx, space, id)
	return id, pair, err
}

// Logout revokes one refresh token when raw is given, otherwise every
// session of principalID.
func (s *AuthService) Logout(ctx context.Context, space utils.Space, principalID uint64, raw string) error {
	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := s.Tokens.ValidateRefresh(ctx, space, hash); err != nil {
			return err
		}
		return s.Tokens.RevokeByHash(ctx, space, hash)
	}
	if principalID == 0 {
		return repository.ErrInvalidRefresh
	}
	return s.Tokens.RevokeAll(ctx, space, principalID)
}

func (s *AuthService) secret(space utils.Space) string {
	if space == utils.SpaceAdmin {
		return s.Cfg.AdminSecret
	}
	return s.Cfg.MemberSecret
}

func credentialError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return err
}
