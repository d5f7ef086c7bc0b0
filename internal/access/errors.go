package access

import "errors"

// Denial errors.  Each corresponds to one guard and is recoverable by the
// user: log in, subscribe, or navigate elsewhere.
var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrWrongPrincipalSpace  = errors.New("wrong principal space")
	ErrSubscriptionRequired = errors.New("subscription required")
	ErrAlreadySubscribed    = errors.New("already subscribed")
	ErrNotOwner             = errors.New("not owner")
	ErrNotFound             = errors.New("resource not found")
)

// Reason is the machine-readable denial reason reported to clients.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonWrongPrincipalSpace  Reason = "wrong-principal-space"
	ReasonUnauthenticated      Reason = "unauthenticated"
	ReasonSubscriptionRequired Reason = "subscription-required"
	ReasonAlreadySubscribed    Reason = "already-subscribed"
	ReasonNotOwner             Reason = "not-owner"
	ReasonNotFound             Reason = "not-found"
)

// Canonical redirect targets for denials.
const (
	PathLogin              = "/login"
	PathAdminLogin         = "/admin/login"
	PathAdminHome          = "/admin/home"
	PathSubscriptionCreate = "/subscription/create"
	PathSubscriptionEdit   = "/subscription/edit"
)

// NotOwnerFlash is the error flash shown when a member touches someone
// else's resource.
const NotOwnerFlash = "You are not allowed to access that item."
