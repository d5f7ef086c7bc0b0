package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

// SortKey selects the primary ordering of a restaurant search.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortPriceAsc   SortKey = "price-ascending"
	SortRating     SortKey = "rating"
	SortPopularity SortKey = "popularity"
)

// Direction applies to SortRating and SortPopularity only.
type Direction string

const (
	Desc Direction = "desc"
	Asc  Direction = "asc"
)

// FilterKind names the single filter a search honours.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterKeyword
	FilterCategory
	FilterPrice
)

// SearchQuery is the input of the restaurant search.  Keyword, category
// and price are alternatives: only the first one present, in that order,
// is applied.  Presence is carried by HasCategory and HasPrice so that a
// zero value still filters.
type SearchQuery struct {
	Keyword     string
	CategoryID  uint64
	HasCategory bool
	MaxPrice    int64 // matches lowest_price < MaxPrice
	HasPrice    bool
	Sort        SortKey
	Direction   Direction
	Page        int
	PerPage     int
}

// Filter reports which filter q applies.
func (q SearchQuery) Filter() FilterKind {
	switch {
	case strings.TrimSpace(q.Keyword) != "":
		return FilterKeyword
	case q.HasCategory:
		return FilterCategory
	case q.HasPrice:
		return FilterPrice
	default:
		return FilterNone
	}
}

const summaryColumns = restaurantColumns + ", rv.avg_score, COALESCE(rv.review_count, 0), COALESCE(rs.reservation_count, 0)"

// aggregateJoins attaches per-restaurant review and reservation aggregates.
// Restaurants without reviews keep a NULL average.
const aggregateJoins = `
	LEFT JOIN (SELECT restaurant_id, AVG(score) AS avg_score, COUNT(*) AS review_count
	           FROM reviews GROUP BY restaurant_id) rv ON rv.restaurant_id = r.id
	LEFT JOIN (SELECT restaurant_id, COUNT(*) AS reservation_count
	           FROM reservations GROUP BY restaurant_id) rs ON rs.restaurant_id = r.id`

// Search returns one page of restaurants matching q plus the total number
// of matches.
func (r *RestaurantRepo) Search(ctx context.Context, q SearchQuery) (model.Page[model.RestaurantSummary], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 15
	}
	cond, args := searchCondition(q)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM restaurants r WHERE "+cond, args...).Scan(&total); err != nil {
		return model.Page[model.RestaurantSummary]{}, err
	}

	dataSQL := "SELECT " + summaryColumns + " FROM restaurants r " + aggregateJoins +
		" WHERE " + cond + " ORDER BY " + searchOrder(q) + " LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, dataSQL, append(args, q.PerPage, model.Offset(q.Page, q.PerPage))...)
	if err != nil {
		return model.Page[model.RestaurantSummary]{}, err
	}
	defer rows.Close()

	out := make([]model.RestaurantSummary, 0, q.PerPage)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return model.Page[model.RestaurantSummary]{}, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.RestaurantSummary]{}, err
	}
	return model.NewPage(out, total, q.Page, q.PerPage), nil
}

func searchCondition(q SearchQuery) (string, []any) {
	switch q.Filter() {
	case FilterKeyword:
		p := likeContains(strings.TrimSpace(q.Keyword))
		return `(r.address LIKE ? ESCAPE '!' OR r.name LIKE ? ESCAPE '!' OR EXISTS (
			SELECT 1 FROM category_restaurant cr JOIN categories c ON c.id = cr.category_id
			WHERE cr.restaurant_id = r.id AND c.name LIKE ? ESCAPE '!'))`, []any{p, p, p}
	case FilterCategory:
		return "EXISTS (SELECT 1 FROM category_restaurant cr WHERE cr.restaurant_id = r.id AND cr.category_id = ?)",
			[]any{q.CategoryID}
	case FilterPrice:
		return "r.lowest_price < ?", []any{q.MaxPrice}
	default:
		return "1=1", nil
	}
}

// searchOrder always ends with the created_at, id tie-break so pages are
// stable.
func searchOrder(q SearchQuery) string {
	const tieBreak = "r.created_at DESC, r.id DESC"
	dir := "DESC"
	if q.Direction == Asc {
		dir = "ASC"
	}
	switch q.Sort {
	case SortPriceAsc:
		return "r.lowest_price ASC, " + tieBreak
	case SortRating:
		// unreviewed restaurants rank last in either direction
		return "(rv.avg_score IS NULL) ASC, rv.avg_score " + dir + ", " + tieBreak
	case SortPopularity:
		return "COALESCE(rs.reservation_count, 0) " + dir + ", " + tieBreak
	default:
		return tieBreak
	}
}

func scanSummary(s scanner) (model.RestaurantSummary, error) {
	var (
		sum model.RestaurantSummary
		avg sql.NullFloat64
	)
	rest := &sum.Restaurant
	err := s.Scan(&rest.ID, &rest.Name, &rest.Description, &rest.LowestPrice, &rest.HighestPrice,
		&rest.PostalCode, &rest.Address, &rest.OpeningTime, &rest.ClosingTime, &rest.SeatingCapacity,
		&rest.CreatedAt, &rest.UpdatedAt, &avg, &sum.ReviewCount, &sum.ReservationCount)
	if err != nil {
		return model.RestaurantSummary{}, err
	}
	if avg.Valid {
		v := avg.Float64
		sum.AverageScore = &v
	}
	return sum, nil
}
