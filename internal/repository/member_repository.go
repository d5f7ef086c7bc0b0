package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

const memberColumns = "id, name, kana, email, password_hash, postal_code, address, phone_number, birthday, occupation, created_at, updated_at"

type MemberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// Create hashes password, inserts m and fills in its id and timestamps.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member, password string, cost int) error {
	m.Email = normalizeEmail(m.Email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (name, kana, email, password_hash, postal_code, address, phone_number, birthday, occupation, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		m.Name, m.Kana, m.Email, hash, m.PostalCode, m.Address, m.PhoneNumber, m.Birthday, m.Occupation, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID, m.PasswordHash, m.CreatedAt, m.UpdatedAt = uint64(id), hash, now, now
	return nil
}

func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	return r.getOne(ctx, "SELECT "+memberColumns+" FROM members WHERE id=? LIMIT 1", id)
}

// GetByEmail looks a member up by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (model.Member, error) {
	return r.getOne(ctx, "SELECT "+memberColumns+" FROM members WHERE email=? LIMIT 1", normalizeEmail(email))
}

// UpdateProfile overwrites the editable profile fields of m.ID.  The email
// must stay unique among members.
func (r *MemberRepo) UpdateProfile(ctx context.Context, m *model.Member) error {
	m.Email = normalizeEmail(m.Email)
	m.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET name=?, kana=?, email=?, postal_code=?, address=?, phone_number=?, birthday=?, occupation=?, updated_at=?
		 WHERE id=?`,
		m.Name, m.Kana, m.Email, m.PostalCode, m.Address, m.PhoneNumber, m.Birthday, m.Occupation, m.UpdatedAt, m.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns members whose name or kana contains keyword, newest first.
func (r *MemberRepo) List(ctx context.Context, keyword string, page, perPage int) (model.Page[model.Member], error) {
	cond, args := "1=1", []any{}
	if kw := strings.TrimSpace(keyword); kw != "" {
		cond = "(name LIKE ? ESCAPE '!' OR kana LIKE ? ESCAPE '!')"
		p := likeContains(kw)
		args = append(args, p, p)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members WHERE "+cond, args...).Scan(&total); err != nil {
		return model.Page[model.Member]{}, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE "+cond+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, perPage, model.Offset(page, perPage))...)
	if err != nil {
		return model.Page[model.Member]{}, err
	}
	defer rows.Close()
	out := make([]model.Member, 0, perPage)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return model.Page[model.Member]{}, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Member]{}, err
	}
	return model.NewPage(out, total, page, perPage), nil
}

func (r *MemberRepo) getOne(ctx context.Context, q string, arg any) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, ErrNotFound
	}
	return m, err
}

type scanner interface{ Scan(dest ...any) error }

func scanMember(s scanner) (model.Member, error) {
	var (
		m                    model.Member
		birthday, occupation sql.NullString
	)
	err := s.Scan(&m.ID, &m.Name, &m.Kana, &m.Email, &m.PasswordHash, &m.PostalCode, &m.Address,
		&m.PhoneNumber, &birthday, &occupation, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return model.Member{}, err
	}
	if birthday.Valid {
		m.Birthday = &birthday.String
	}
	if occupation.Valid {
		m.Occupation = &occupation.String
	}
	return m, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// likeContains builds a LIKE pattern matching s anywhere, escaping the
// wildcards with '!'.
func likeContains(s string) string {
	s = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
	return "%" + s + "%"
}
