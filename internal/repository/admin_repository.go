package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

// AdminRepo reads and writes the `administrators` table, which shares no
// keys with `members`.
type AdminRepo struct{ db *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

func (r *AdminRepo) Create(ctx context.Context, email, password string, cost int) (model.Administrator, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.Administrator{}, err
	}
	a := model.Administrator{Email: normalizeEmail(email), PasswordHash: hash, CreatedAt: time.Now().UTC()}
	a.UpdatedAt = a.CreatedAt
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO administrators (email, password_hash, created_at, updated_at) VALUES (?,?,?,?)",
		a.Email, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return model.Administrator{}, ErrEmailExists
		}
		return model.Administrator{}, fmt.Errorf("insert administrator: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Administrator{}, err
	}
	a.ID = uint64(id)
	return a, nil
}

func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Administrator, error) {
	return r.getOne(ctx, "SELECT id, email, password_hash, created_at, updated_at FROM administrators WHERE email=? LIMIT 1", normalizeEmail(email))
}

func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (model.Administrator, error) {
	return r.getOne(ctx, "SELECT id, email, password_hash, created_at, updated_at FROM administrators WHERE id=? LIMIT 1", id)
}

func (r *AdminRepo) getOne(ctx context.Context, q string, arg any) (model.Administrator, error) {
	var a model.Administrator
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Administrator{}, ErrNotFound
	}
	return a, err
}
