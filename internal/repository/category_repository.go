package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// All returns every category by id.
func (r *CategoryRepo) All(ctx context.Context) ([]model.Category, error) {
	return r.query(ctx, "SELECT id, name, created_at, updated_at FROM categories ORDER BY id")
}

// List pages through categories whose name contains keyword.
func (r *CategoryRepo) List(ctx context.Context, keyword string, page, perPage int) (model.Page[model.Category], error) {
	cond, args := "1=1", []any{}
	if kw := strings.TrimSpace(keyword); kw != "" {
		cond = "name LIKE ? ESCAPE '!'"
		args = append(args, likeContains(kw))
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories WHERE "+cond, args...).Scan(&total); err != nil {
		return model.Page[model.Category]{}, err
	}
	items, err := r.query(ctx,
		"SELECT id, name, created_at, updated_at FROM categories WHERE "+cond+" ORDER BY id LIMIT ? OFFSET ?",
		append(args, perPage, model.Offset(page, perPage))...)
	if err != nil {
		return model.Page[model.Category]{}, err
	}
	return model.NewPage(items, total, page, perPage), nil
}

func (r *CategoryRepo) Create(ctx context.Context, name string) (model.Category, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name, created_at, updated_at) VALUES (?,?,?)", name, now, now)
	if err != nil {
		return model.Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: uint64(id), Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *CategoryRepo) Update(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE categories SET name=?, updated_at=? WHERE id=?", name, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (model.Category, error) {
	var c model.Category
	err := r.db.QueryRowContext(ctx, "SELECT id, name, created_at, updated_at FROM categories WHERE id=?", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	return c, err
}

// CountExisting returns how many of ids exist.
func (r *CategoryRepo) CountExisting(ctx context.Context, ids []uint64) (int, error) {
	return countIn(ctx, r.db, "categories", ids)
}

func (r *CategoryRepo) query(ctx context.Context, q string, args ...any) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// countIn counts distinct ids present in table.
func countIn(ctx context.Context, db *sql.DB, table string, ids []uint64) (int, error) {
	uniq := map[uint64]bool{}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		if !uniq[id] {
			uniq[id] = true
			args = append(args, id)
		}
	}
	if len(args) == 0 {
		return 0, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id IN ("+marks+")", args...).Scan(&n)
	return n, err
}
