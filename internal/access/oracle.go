package access

import (
	"context"
	"fmt"
)

// PremiumPlan is the only paid plan.  Reservations and the full review
// history are unlocked while a member's premium_plan subscription is active.
const PremiumPlan = "premium_plan"

// SubscriptionChecker is the part of the billing provider the oracle needs.
type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context, memberID uint64, planID string) (bool, error)
}

// Oracle answers whether a member's paid plan is currently active.  It
// keeps no state; plan status may change at any moment on the provider side.
type Oracle interface {
	IsActive(ctx context.Context, memberID uint64) (bool, error)
}

// BillingOracle delegates to the billing provider for PremiumPlan.
type BillingOracle struct {
	Billing SubscriptionChecker
}

func NewBillingOracle(b SubscriptionChecker) *BillingOracle { return &BillingOracle{Billing: b} }

func (o *BillingOracle) IsActive(ctx context.Context, memberID uint64) (bool, error) {
	ok, err := o.Billing.IsSubscribed(ctx, memberID, PremiumPlan)
	if err != nil {
		return false, fmt.Errorf("lookup subscription for member %d: %w", memberID, err)
	}
	return ok, nil
}

// RequestOracle memoises one oracle answer for the lifetime of a single
// request.  It must never be shared between requests.
type RequestOracle struct {
	oracle Oracle
	done   bool
	active bool
	err    error
}

// ForRequest wraps o for one request.
func ForRequest(o Oracle) *RequestOracle { return &RequestOracle{oracle: o} }

// IsActive consults the underlying oracle on first use and replays the
// same answer afterwards.
func (r *RequestOracle) IsActive(ctx context.Context, memberID uint64) (bool, error) {
	if !r.done {
		r.active, r.err = r.oracle.IsActive(ctx, memberID)
		r.done = true
	}
	return r.active, r.err
}
