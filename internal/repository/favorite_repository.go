package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

type FavoriteRepo struct{ db *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Add bookmarks a restaurant.  Adding an existing favorite is a no-op.
func (r *FavoriteRepo) Add(ctx context.Context, memberID, restaurantID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO favorites (member_id, restaurant_id, created_at) VALUES (?,?,?)",
		memberID, restaurantID, time.Now().UTC())
	if isDuplicate(err) {
		return nil
	}
	return err
}

// Remove drops a bookmark; a missing one is not an error.
func (r *FavoriteRepo) Remove(ctx context.Context, memberID, restaurantID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM favorites WHERE member_id=? AND restaurant_id=?", memberID, restaurantID)
	return err
}

func (r *FavoriteRepo) Exists(ctx context.Context, memberID, restaurantID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorites WHERE member_id=? AND restaurant_id=?", memberID, restaurantID).Scan(&n)
	return n > 0, err
}

// ListByMember pages through a member's favorites, most recent first.
func (r *FavoriteRepo) ListByMember(ctx context.Context, memberID uint64, page, perPage int) (model.Page[model.Favorite], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM favorites WHERE member_id=?", memberID).Scan(&total); err != nil {
		return model.Page[model.Favorite]{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT f.member_id, f.created_at, "+restaurantColumns+
			" FROM favorites f JOIN restaurants r ON r.id = f.restaurant_id"+
			" WHERE f.member_id=? ORDER BY f.created_at DESC, r.id DESC LIMIT ? OFFSET ?",
		memberID, perPage, model.Offset(page, perPage))
	if err != nil {
		return model.Page[model.Favorite]{}, err
	}
	defer rows.Close()
	out := make([]model.Favorite, 0, perPage)
	for rows.Next() {
		var f model.Favorite
		rest := &f.Restaurant
		if err := rows.Scan(&f.MemberID, &f.CreatedAt, &rest.ID, &rest.Name, &rest.Description, &rest.LowestPrice,
			&rest.HighestPrice, &rest.PostalCode, &rest.Address, &rest.OpeningTime, &rest.ClosingTime,
			&rest.SeatingCapacity, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return model.Page[model.Favorite]{}, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Favorite]{}, err
	}
	return model.NewPage(out, total, page, perPage), nil
}
