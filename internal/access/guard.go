package access

import (
	"context"
	"errors"
	"fmt"
)

// OwnerFunc loads the member id owning the resource a request targets.  It
// returns ErrNotFound when the resource does not exist.  It is only called
// once every earlier guard has passed.
type OwnerFunc func(ctx context.Context) (uint64, error)

// Request is the (principal, action, resource) triple a chain is evaluated
// over.
type Request struct {
	Principal Principal
	Action    Action
	// Oracle answers subscription questions for this request only.
	Oracle *RequestOracle
	// Owner resolves the owning member of the target resource.
	Owner OwnerFunc
	// IndexPath is where a non-owner is sent back to.
	IndexPath string
}

// Decision is the outcome of a guard or a whole chain.  A denial carries a
// reason, where to send the requester and optionally a flash message.  Err
// is set for every denial; a denial with ReasonNone is an internal failure
// (e.g. the billing provider could not be reached).
type Decision struct {
	Allowed  bool
	Reason   Reason
	Redirect string
	Flash    string
	Err      error
}

// Allow is the pass-through decision.
func Allow() Decision { return Decision{Allowed: true} }

func deny(reason Reason, redirect string, err error) Decision {
	return Decision{Reason: reason, Redirect: redirect, Err: err}
}

func failure(err error) Decision { return Decision{Err: err} }

// NotOwned sends a member who acted on someone else's resource back to
// index with the not-owner flash.
func NotOwned(index string) Decision {
	d := deny(ReasonNotOwner, index, ErrNotOwner)
	d.Flash = NotOwnerFlash
	return d
}

// Guard approves or denies a request.  Guards must not mutate the request.
type Guard func(ctx context.Context, req *Request) Decision

// Chain is an ordered list of guards.  Evaluation stops at the first denial.
type Chain []Guard

// Evaluate runs the guards in order and returns the first denial, or Allow
// when every guard passes.
func (c Chain) Evaluate(ctx context.Context, req *Request) Decision {
	for _, g := range c {
		if d := g(ctx, req); !d.Allowed {
			return d
		}
	}
	return Allow()
}

// AdministratorExclusion keeps administrators off the member-facing surface.
func AdministratorExclusion(_ context.Context, req *Request) Decision {
	if req.Principal.IsAdministrator() {
		return deny(ReasonWrongPrincipalSpace, PathAdminHome, ErrWrongPrincipalSpace)
	}
	return Allow()
}

// Authentication requires a logged-in member.
func Authentication(_ context.Context, req *Request) Decision {
	if !req.Principal.IsMember() {
		return deny(ReasonUnauthenticated, PathLogin, ErrUnauthenticated)
	}
	return Allow()
}

// SubscriptionRequired requires an active paid plan.
func SubscriptionRequired(ctx context.Context, req *Request) Decision {
	active, err := subscriptionActive(ctx, req)
	if err != nil {
		return failure(err)
	}
	if !active {
		return deny(ReasonSubscriptionRequired, PathSubscriptionCreate, ErrSubscriptionRequired)
	}
	return Allow()
}

// SubscriptionForbidden keeps already subscribed members off the sign-up flow.
func SubscriptionForbidden(ctx context.Context, req *Request) Decision {
	active, err := subscriptionActive(ctx, req)
	if err != nil {
		return failure(err)
	}
	if active {
		return deny(ReasonAlreadySubscribed, PathSubscriptionEdit, ErrAlreadySubscribed)
	}
	return Allow()
}

// Ownership requires the requester to own the target resource.  A
// non-owner is returned to the resource index with an error flash rather
// than being sent away from the surface.
func Ownership(ctx context.Context, req *Request) Decision {
	memberID, ok := req.Principal.MemberID()
	if !ok {
		return deny(ReasonUnauthenticated, PathLogin, ErrUnauthenticated)
	}
	if req.Owner == nil {
		return failure(fmt.Errorf("action %s: no owner lookup configured", req.Action))
	}
	owner, err := req.Owner(ctx)
	if errors.Is(err, ErrNotFound) {
		return Decision{Reason: ReasonNotFound, Err: ErrNotFound}
	}
	if err != nil {
		return failure(err)
	}
	if owner != memberID {
		return NotOwned(req.IndexPath)
	}
	return Allow()
}

// AdministratorAuthentication requires a logged-in administrator.
func AdministratorAuthentication(_ context.Context, req *Request) Decision {
	if !req.Principal.IsAdministrator() {
		return deny(ReasonUnauthenticated, PathAdminLogin, ErrUnauthenticated)
	}
	return Allow()
}

func subscriptionActive(ctx context.Context, req *Request) (bool, error) {
	memberID, ok := req.Principal.MemberID()
	if !ok {
		return false, nil
	}
	if req.Oracle == nil {
		return false, fmt.Errorf("action %s: no subscription oracle configured", req.Action)
	}
	return req.Oracle.IsActive(ctx, memberID)
}
