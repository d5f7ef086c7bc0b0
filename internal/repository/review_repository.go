package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

const reviewSelect = `SELECT v.id, v.member_id, m.name, v.restaurant_id, v.score, v.content, v.created_at, v.updated_at
	FROM reviews v JOIN members m ON m.id = v.member_id`

type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts rv.  A zero CreatedAt is set to now.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}
	rv.UpdatedAt = rv.CreatedAt
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (member_id, restaurant_id, score, content, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		rv.MemberID, rv.RestaurantID, rv.Score, rv.Content, rv.CreatedAt, rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+" WHERE v.id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, ErrNotFound
	}
	return rv, err
}

// OwnerOf returns the member who wrote review id.
func (r *ReviewRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	return ownerOf(ctx, r.db, "reviews", id)
}

// Update rewrites score and content of a review owned by memberID.
func (r *ReviewRepo) Update(ctx context.Context, id, memberID uint64, score int, content string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reviews SET score=?, content=?, updated_at=? WHERE id=? AND member_id=?",
		score, content, time.Now().UTC(), id, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.OwnerOf(ctx, id); err != nil {
		return err
	}
	return ErrForbidden
}

func (r *ReviewRepo) Delete(ctx context.Context, id, memberID uint64) error {
	return deleteOwned(ctx, r.db, "reviews", id, memberID)
}

// PageByRestaurant pages through a restaurant's reviews, newest first.
func (r *ReviewRepo) PageByRestaurant(ctx context.Context, restaurantID uint64, page, perPage int) (model.Page[model.Review], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews WHERE restaurant_id=?", restaurantID).Scan(&total); err != nil {
		return model.Page[model.Review]{}, err
	}
	items, err := r.list(ctx, restaurantID, perPage, model.Offset(page, perPage))
	if err != nil {
		return model.Page[model.Review]{}, err
	}
	return model.NewPage(items, total, page, perPage), nil
}

// LatestByRestaurant returns at most n of the newest reviews.
func (r *ReviewRepo) LatestByRestaurant(ctx context.Context, restaurantID uint64, n int) ([]model.Review, error) {
	return r.list(ctx, restaurantID, n, 0)
}

func (r *ReviewRepo) list(ctx context.Context, restaurantID uint64, limit, offset int) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		reviewSelect+" WHERE v.restaurant_id=? ORDER BY v.created_at DESC, v.id DESC LIMIT ? OFFSET ?",
		restaurantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0, limit)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func scanReview(s scanner) (model.Review, error) {
	var rv model.Review
	err := s.Scan(&rv.ID, &rv.MemberID, &rv.MemberName, &rv.RestaurantID, &rv.Score, &rv.Content, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}
