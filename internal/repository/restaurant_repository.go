package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

const restaurantColumns = "r.id, r.name, r.description, r.lowest_price, r.highest_price, r.postal_code, r.address, r.opening_time, r.closing_time, r.seating_capacity, r.created_at, r.updated_at"

// RestaurantRepo covers restaurant rows and their category and regular
// holiday associations.  Searching lives in restaurant_search.go.
type RestaurantRepo struct{ db *sql.DB }

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

// Create inserts rest together with its associations in one transaction.
// A zero CreatedAt is set to now.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant, categoryIDs, holidayIDs []uint64) error {
	if rest.CreatedAt.IsZero() {
		rest.CreatedAt = time.Now().UTC()
	}
	rest.UpdatedAt = rest.CreatedAt
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO restaurants (name, description, lowest_price, highest_price, postal_code, address, opening_time, closing_time, seating_capacity, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			rest.Name, rest.Description, rest.LowestPrice, rest.HighestPrice, rest.PostalCode, rest.Address,
			rest.OpeningTime, rest.ClosingTime, rest.SeatingCapacity, rest.CreatedAt, rest.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert restaurant: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rest.ID = uint64(id)
		return r.syncAll(ctx, tx, rest.ID, categoryIDs, holidayIDs)
	})
}

// Update overwrites the columns of rest.ID and replaces its associations.
// Either everything is applied or nothing is.
func (r *RestaurantRepo) Update(ctx context.Context, rest *model.Restaurant, categoryIDs, holidayIDs []uint64) error {
	rest.UpdatedAt = time.Now().UTC()
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE restaurants SET name=?, description=?, lowest_price=?, highest_price=?, postal_code=?, address=?,
			 opening_time=?, closing_time=?, seating_capacity=?, updated_at=? WHERE id=?`,
			rest.Name, rest.Description, rest.LowestPrice, rest.HighestPrice, rest.PostalCode, rest.Address,
			rest.OpeningTime, rest.ClosingTime, rest.SeatingCapacity, rest.UpdatedAt, rest.ID)
		if err != nil {
			return fmt.Errorf("update restaurant: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return r.syncAll(ctx, tx, rest.ID, categoryIDs, holidayIDs)
	})
}

// Delete removes a restaurant.  Associations, reviews, reservations and
// favorites go with it through ON DELETE CASCADE.
func (r *RestaurantRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM restaurants WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (model.Restaurant, error) {
	rest, err := scanRestaurant(r.db.QueryRowContext(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants r WHERE r.id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Restaurant{}, ErrNotFound
	}
	return rest, err
}

// Detail loads a restaurant with its aggregates and associations.
func (r *RestaurantRepo) Detail(ctx context.Context, id uint64) (model.RestaurantDetail, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+summaryColumns+" FROM restaurants r "+aggregateJoins+" WHERE r.id=?", id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RestaurantDetail{}, ErrNotFound
	}
	if err != nil {
		return model.RestaurantDetail{}, err
	}
	d := model.RestaurantDetail{RestaurantSummary: sum}
	if d.Categories, err = r.Categories(ctx, id); err != nil {
		return model.RestaurantDetail{}, err
	}
	if d.RegularHolidays, err = r.RegularHolidays(ctx, id); err != nil {
		return model.RestaurantDetail{}, err
	}
	return d, nil
}

// Categories returns the categories assigned to a restaurant.
func (r *RestaurantRepo) Categories(ctx context.Context, restaurantID uint64) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.created_at, c.updated_at FROM categories c
		 JOIN category_restaurant cr ON cr.category_id = c.id
		 WHERE cr.restaurant_id=? ORDER BY c.id`, restaurantID)
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

// RegularHolidays returns the weekly closing days of a restaurant.
func (r *RestaurantRepo) RegularHolidays(ctx context.Context, restaurantID uint64) ([]model.RegularHoliday, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT h.id, h.day, h.day_index FROM regular_holidays h
		 JOIN regular_holiday_restaurant hr ON hr.regular_holiday_id = h.id
		 WHERE hr.restaurant_id=? ORDER BY h.id`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RegularHoliday{}
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// AdminList pages through restaurants whose name contains keyword.
func (r *RestaurantRepo) AdminList(ctx context.Context, keyword string, page, perPage int) (model.Page[model.Restaurant], error) {
	cond, args := "1=1", []any{}
	if kw := strings.TrimSpace(keyword); kw != "" {
		cond = "r.name LIKE ? ESCAPE '!'"
		args = append(args, likeContains(kw))
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM restaurants r WHERE "+cond, args...).Scan(&total); err != nil {
		return model.Page[model.Restaurant]{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants r WHERE "+cond+" ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?",
		append(args, perPage, model.Offset(page, perPage))...)
	if err != nil {
		return model.Page[model.Restaurant]{}, err
	}
	defer rows.Close()
	out := make([]model.Restaurant, 0, perPage)
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return model.Page[model.Restaurant]{}, err
		}
		out = append(out, rest)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Restaurant]{}, err
	}
	return model.NewPage(out, total, page, perPage), nil
}

func (r *RestaurantRepo) syncAll(ctx context.Context, tx *sql.Tx, restaurantID uint64, categoryIDs, holidayIDs []uint64) error {
	if err := syncPivot(ctx, tx, "category_restaurant", "category_id", restaurantID, categoryIDs); err != nil {
		return fmt.Errorf("sync categories: %w", err)
	}
	if err := syncPivot(ctx, tx, "regular_holiday_restaurant", "regular_holiday_id", restaurantID, holidayIDs); err != nil {
		return fmt.Errorf("sync regular holidays: %w", err)
	}
	return nil
}

// syncPivot makes the set of `column` values linked to restaurantID in
// table equal to want: rows not in want are dropped, missing ones added,
// rows present in both are left untouched.
func syncPivot(ctx context.Context, tx *sql.Tx, table, column string, restaurantID uint64, want []uint64) error {
	rows, err := tx.QueryContext(ctx, "SELECT "+column+" FROM "+table+" WHERE restaurant_id=?", restaurantID)
	if err != nil {
		return err
	}
	have := map[uint64]bool{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		have[id] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	wantSet := map[uint64]bool{}
	for _, id := range want {
		wantSet[id] = true
	}
	for id := range have {
		if !wantSet[id] {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE restaurant_id=? AND "+column+"=?", restaurantID, id); err != nil {
				return err
			}
		}
	}
	now := time.Now().UTC()
	for id := range wantSet {
		if !have[id] {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO "+table+" ("+column+", restaurant_id, created_at) VALUES (?,?,?)",
				id, restaurantID, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *RestaurantRepo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanRestaurant(s scanner) (model.Restaurant, error) {
	var rest model.Restaurant
	err := s.Scan(&rest.ID, &rest.Name, &rest.Description, &rest.LowestPrice, &rest.HighestPrice,
		&rest.PostalCode, &rest.Address, &rest.OpeningTime, &rest.ClosingTime, &rest.SeatingCapacity,
		&rest.CreatedAt, &rest.UpdatedAt)
	return rest, err
}

func scanHoliday(s scanner) (model.RegularHoliday, error) {
	var (
		h   model.RegularHoliday
		idx sql.NullInt64
	)
	if err := s.Scan(&h.ID, &h.Day, &idx); err != nil {
		return model.RegularHoliday{}, err
	}
	if idx.Valid {
		v := int(idx.Int64)
		h.DayIndex = &v
	}
	return h, nil
}
