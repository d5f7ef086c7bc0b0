// Package billing is the Billing Provider capability: subscription state
// and default payment methods per member.  Payment processing itself
// happens elsewhere; this package only keeps the ledger the rest of the
// service consults.
package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
)

// Subscription statuses.
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
)

var (
	// ErrAlreadySubscribed is returned when creating a plan the member
	// already holds.
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrNoSubscription is returned when cancelling a plan the member
	// does not hold.
	ErrNoSubscription = errors.New("no active subscription")
	// ErrPaymentMethodRequired is returned for an empty payment token.
	ErrPaymentMethodRequired = errors.New("payment method required")
)

// Provider is the billing capability consumed by the subscription oracle
// and the subscription pages.
type Provider interface {
	IsSubscribed(ctx context.Context, memberID uint64, planID string) (bool, error)
	CreateSubscription(ctx context.Context, memberID uint64, paymentMethod, planID string) (model.Subscription, error)
	CancelSubscription(ctx context.Context, memberID uint64, planID string) error
	UpdateDefaultPaymentMethod(ctx context.Context, memberID uint64, paymentMethod string) error
	DefaultPaymentMethod(ctx context.Context, memberID uint64) (string, error)
}

// Ledger is a Provider backed by the `subscriptions` and
// `billing_customers` tables.
type Ledger struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

// IsSubscribed reports whether member holds planID with an active status
// whose end date, if any, lies in the future.
func (l *Ledger) IsSubscribed(ctx context.Context, memberID uint64, planID string) (bool, error) {
	var n int
	err := l.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions
		 WHERE member_id=? AND plan=? AND status=? AND (ends_at IS NULL OR ends_at > ?)`,
		memberID, planID, StatusActive, l.Now()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query subscription: %w", err)
	}
	return n > 0, nil
}

// CreateSubscription starts planID for member, charging paymentMethod,
// which also becomes the member's default payment method.
func (l *Ledger) CreateSubscription(ctx context.Context, memberID uint64, paymentMethod, planID string) (model.Subscription, error) {
	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		return model.Subscription{}, ErrPaymentMethodRequired
	}
	active, err := l.IsSubscribed(ctx, memberID, planID)
	if err != nil {
		return model.Subscription{}, err
	}
	if active {
		return model.Subscription{}, ErrAlreadySubscribed
	}

	now := l.Now()
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Subscription{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO subscriptions (member_id, plan, payment_method, status, ends_at, created_at, updated_at)
		 VALUES (?,?,?,?,NULL,?,?)`,
		memberID, planID, paymentMethod, StatusActive, now, now)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Subscription{}, err
	}
	if err := upsertDefault(ctx, tx, memberID, paymentMethod, now); err != nil {
		return model.Subscription{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Subscription{}, err
	}
	return model.Subscription{
		ID:            uint64(id),
		MemberID:      memberID,
		Plan:          planID,
		PaymentMethod: paymentMethod,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CancelSubscription ends planID immediately.
func (l *Ledger) CancelSubscription(ctx context.Context, memberID uint64, planID string) error {
	now := l.Now()
	res, err := l.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status=?, ends_at=?, updated_at=?
		 WHERE member_id=? AND plan=? AND status=?`,
		StatusCanceled, now, now, memberID, planID, StatusActive)
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoSubscription
	}
	return nil
}

// UpdateDefaultPaymentMethod replaces the member's default payment method
// and moves active subscriptions onto it.
func (l *Ledger) UpdateDefaultPaymentMethod(ctx context.Context, memberID uint64, paymentMethod string) error {
	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		return ErrPaymentMethodRequired
	}
	now := l.Now()
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := upsertDefault(ctx, tx, memberID, paymentMethod, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE subscriptions SET payment_method=?, updated_at=? WHERE member_id=? AND status=?",
		paymentMethod, now, memberID, StatusActive); err != nil {
		return fmt.Errorf("update subscription payment method: %w", err)
	}
	return tx.Commit()
}

// DefaultPaymentMethod returns the stored default, or "" when none is set.
func (l *Ledger) DefaultPaymentMethod(ctx context.Context, memberID uint64) (string, error) {
	var pm string
	err := l.DB.QueryRowContext(ctx,
		"SELECT default_payment_method FROM billing_customers WHERE member_id=?", memberID).Scan(&pm)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return pm, err
}

// upsertDefault is written as update-then-insert so the same statements run
// on MySQL and SQLite.
func upsertDefault(ctx context.Context, tx *sql.Tx, memberID uint64, pm string, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE billing_customers SET default_payment_method=?, updated_at=? WHERE member_id=?",
		pm, now, memberID)
	if err != nil {
		return fmt.Errorf("update billing customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO billing_customers (member_id, default_payment_method, updated_at) VALUES (?,?,?)",
		memberID, pm, now); err != nil {
		return fmt.Errorf("insert billing customer: %w", err)
	}
	return nil
}
