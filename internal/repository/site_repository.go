package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

// SiteRepo serves the single-row `terms` and `companies` tables.
type SiteRepo struct{ db *sql.DB }

func NewSiteRepo(db *sql.DB) *SiteRepo { return &SiteRepo{db: db} }

func (r *SiteRepo) Term(ctx context.Context) (model.Term, error) {
	var t model.Term
	err := r.db.QueryRowContext(ctx, "SELECT id, content, created_at, updated_at FROM terms ORDER BY id LIMIT 1").
		Scan(&t.ID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Term{}, ErrNotFound
	}
	return t, err
}

// SaveTerm updates the first terms row, creating it when the table is empty.
func (r *SiteRepo) SaveTerm(ctx context.Context, content string) (model.Term, error) {
	now := time.Now().UTC()
	cur, err := r.Term(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		res, err := r.db.ExecContext(ctx, "INSERT INTO terms (content, created_at, updated_at) VALUES (?,?,?)", content, now, now)
		if err != nil {
			return model.Term{}, err
		}
		id, _ := res.LastInsertId()
		return model.Term{ID: uint64(id), Content: content, CreatedAt: now, UpdatedAt: now}, nil
	case err != nil:
		return model.Term{}, err
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE terms SET content=?, updated_at=? WHERE id=?", content, now, cur.ID); err != nil {
		return model.Term{}, err
	}
	cur.Content, cur.UpdatedAt = content, now
	return cur, nil
}

func (r *SiteRepo) Company(ctx context.Context) (model.Company, error) {
	var c model.Company
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, postal_code, address, representative, establishment_date, capital, business, number_of_employees, created_at, updated_at
		 FROM companies ORDER BY id LIMIT 1`).
		Scan(&c.ID, &c.Name, &c.PostalCode, &c.Address, &c.Representative, &c.EstablishmentDate,
			&c.Capital, &c.Business, &c.NumberOfEmployees, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, ErrNotFound
	}
	return c, err
}

// SaveCompany updates the company profile, creating it when absent.
func (r *SiteRepo) SaveCompany(ctx context.Context, c model.Company) (model.Company, error) {
	now := time.Now().UTC()
	cur, err := r.Company(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO companies (name, postal_code, address, representative, establishment_date, capital, business, number_of_employees, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?,?,?,?)`,
			c.Name, c.PostalCode, c.Address, c.Representative, c.EstablishmentDate, c.Capital, c.Business, c.NumberOfEmployees, now, now)
		if err != nil {
			return model.Company{}, err
		}
		id, _ := res.LastInsertId()
		c.ID, c.CreatedAt, c.UpdatedAt = uint64(id), now, now
		return c, nil
	case err != nil:
		return model.Company{}, err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE companies SET name=?, postal_code=?, address=?, representative=?, establishment_date=?, capital=?, business=?, number_of_employees=?, updated_at=?
		 WHERE id=?`,
		c.Name, c.PostalCode, c.Address, c.Representative, c.EstablishmentDate, c.Capital, c.Business, c.NumberOfEmployees, now, cur.ID); err != nil {
		return model.Company{}, err
	}
	c.ID, c.CreatedAt, c.UpdatedAt = cur.ID, cur.CreatedAt, now
	return c, nil
}
