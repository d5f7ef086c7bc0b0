package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

// ErrInvalidRefresh covers unknown, revoked, expired and foreign-space
// refresh tokens alike.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// TokenRepo persists refresh token hashes per principal space.
type TokenRepo struct{ db *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

func (r *TokenRepo) StoreRefresh(ctx context.Context, space utils.Space, principalID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (space, principal_id, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)",
		string(space), principalID, tokenHash, exp, time.Now().UTC())
	return err
}

// ValidateRefresh returns the principal id owning a live token in space.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, space utils.Space, tokenHash string) (uint64, error) {
	var (
		id        uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT principal_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? AND space=? LIMIT 1",
		tokenHash, string(space)).Scan(&id, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvalidRefresh
	}
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, ErrInvalidRefresh
	}
	return id, nil
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, space utils.Space, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND space=? AND revoked_at IS NULL",
		time.Now().UTC(), tokenHash, string(space))
	return err
}

// RevokeAll logs a principal out of every session.
func (r *TokenRepo) RevokeAll(ctx context.Context, space utils.Space, principalID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE space=? AND principal_id=? AND revoked_at IS NULL",
		time.Now().UTC(), string(space), principalID)
	return err
}
