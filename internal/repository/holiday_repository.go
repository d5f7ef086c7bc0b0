package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

type HolidayRepo struct{ db *sql.DB }

func NewHolidayRepo(db *sql.DB) *HolidayRepo { return &HolidayRepo{db: db} }

func (r *HolidayRepo) All(ctx context.Context) ([]model.RegularHoliday, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, day, day_index FROM regular_holidays ORDER BY id")
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

// Create adds a closing day.  dayIndex is nil for irregular closures.
func (r *HolidayRepo) Create(ctx context.Context, day string, dayIndex *int) (model.RegularHoliday, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO regular_holidays (day, day_index, created_at, updated_at) VALUES (?,?,?,?)",
		day, dayIndex, now, now)
	if err != nil {
		return model.RegularHoliday{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.RegularHoliday{}, err
	}
	return model.RegularHoliday{ID: uint64(id), Day: day, DayIndex: dayIndex}, nil
}

func (r *HolidayRepo) CountExisting(ctx context.Context, ids []uint64) (int, error) {
	return countIn(ctx, r.db, "regular_holidays", ids)
}
