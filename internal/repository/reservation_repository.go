package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

type ReservationRepo struct{ db *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts res and fills in its id and timestamps.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	now := time.Now().UTC()
	out, err := r.db.ExecContext(ctx,
		`INSERT INTO reservations (member_id, restaurant_id, reserved_datetime, number_of_people, created_at, updated_at)
		 VALUES (?,?,?,?,?,?)`,
		res.MemberID, res.RestaurantID, res.ReservedDatetime.UTC(), res.NumberOfPeople, now, now)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID, res.CreatedAt, res.UpdatedAt = uint64(id), now, now
	return nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	var res model.Reservation
	err := r.db.QueryRowContext(ctx,
		`SELECT v.id, v.member_id, v.restaurant_id, r.name, v.reserved_datetime, v.number_of_people, v.created_at, v.updated_at
		 FROM reservations v JOIN restaurants r ON r.id = v.restaurant_id WHERE v.id=?`, id).
		Scan(&res.ID, &res.MemberID, &res.RestaurantID, &res.RestaurantName, &res.ReservedDatetime,
			&res.NumberOfPeople, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	return res, err
}

// OwnerOf returns the member who holds reservation id.
func (r *ReservationRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	return ownerOf(ctx, r.db, "reservations", id)
}

// Delete removes reservation id if memberID owns it.  It returns
// ErrNotFound for a missing row and ErrForbidden for someone else's.
func (r *ReservationRepo) Delete(ctx context.Context, id, memberID uint64) error {
	return deleteOwned(ctx, r.db, "reservations", id, memberID)
}

// ListByMember pages through a member's reservations, latest reserved
// time first.
func (r *ReservationRepo) ListByMember(ctx context.Context, memberID uint64, page, perPage int) (model.Page[model.Reservation], error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations WHERE member_id=?", memberID).Scan(&total); err != nil {
		return model.Page[model.Reservation]{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.id, v.member_id, v.restaurant_id, r.name, v.reserved_datetime, v.number_of_people, v.created_at, v.updated_at
		 FROM reservations v JOIN restaurants r ON r.id = v.restaurant_id
		 WHERE v.member_id=? ORDER BY v.reserved_datetime DESC, v.id DESC LIMIT ? OFFSET ?`,
		memberID, perPage, model.Offset(page, perPage))
	if err != nil {
		return model.Page[model.Reservation]{}, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0, perPage)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.MemberID, &res.RestaurantID, &res.RestaurantName, &res.ReservedDatetime,
			&res.NumberOfPeople, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return model.Page[model.Reservation]{}, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Reservation]{}, err
	}
	return model.NewPage(out, total, page, perPage), nil
}

func ownerOf(ctx context.Context, db *sql.DB, table string, id uint64) (uint64, error) {
	var owner uint64
	err := db.QueryRowContext(ctx, "SELECT member_id FROM "+table+" WHERE id=?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return owner, err
}

// deleteOwned deletes by id and owner in one statement, then tells a
// missing row apart from a foreign one.
func deleteOwned(ctx context.Context, db *sql.DB, table string, id, memberID uint64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id=? AND member_id=?", id, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := ownerOf(ctx, db, table, id); err != nil {
		return err
	}
	return ErrForbidden
}
