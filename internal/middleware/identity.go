package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
)

const (
	principalKey    = "principal"
	subscriptionKey = "subscription"
)

// Identify resolves the bearer token into a principal and attaches a
// per-request subscription oracle.  It never rejects a request; denial is
// the job of Authorize.
func Identify(resolver *access.Resolver, oracle access.Oracle) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(principalKey, resolver.Resolve(c.Request().Header.Get(echo.HeaderAuthorization)))
			c.Set(subscriptionKey, access.ForRequest(oracle))
			return next(c)
		}
	}
}

// Principal returns the principal resolved for this request, or Anonymous
// when Identify did not run.
func Principal(c echo.Context) access.Principal {
	if p, ok := c.Get(principalKey).(access.Principal); ok {
		return p
	}
	return access.Anonymous()
}

// Subscription returns the request-scoped subscription oracle.
func Subscription(c echo.Context) *access.RequestOracle {
	if o, ok := c.Get(subscriptionKey).(*access.RequestOracle); ok {
		return o
	}
	return nil
}

// ViewerIsSubscribed reports whether the requester is a member with an
// active paid plan.  It shares the answer already fetched by the guards.
func ViewerIsSubscribed(c echo.Context) (bool, error) {
	id, ok := Principal(c).MemberID()
	o := Subscription(c)
	if !ok || o == nil {
		return false, nil
	}
	return o.IsActive(c.Request().Context(), id)
}

// principalKeyPart identifies the requester for rate limiting.
func principalKeyPart(c echo.Context) string {
	p := Principal(c)
	if p.IsAnonymous() {
		return "anon"
	}
	return p.String()
}
