package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
)

const indexKey = "index_path"

// IndexPath is the index of the resource the current route acts on, or ""
// when the route has none.
func IndexPath(c echo.Context) string {
	p, _ := c.Get(indexKey).(string)
	return p
}

// Target describes the resource a route acts on.  Both fields are optional
// and only consulted by chains that check ownership.
type Target struct {
	Owner func(c echo.Context) access.OwnerFunc
	Index func(c echo.Context) string
}

// Authorize evaluates the policy chain of action for every request and
// writes the denial response itself.  Handlers behind it only run for
// allowed requests.
func Authorize(policy access.Policy, action access.Action, target Target, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := &access.Request{
				Principal: Principal(c),
				Action:    action,
				Oracle:    Subscription(c),
			}
			if target.Owner != nil {
				req.Owner = target.Owner(c)
			}
			if target.Index != nil {
				req.IndexPath = target.Index(c)
				c.Set(indexKey, req.IndexPath)
			}
			d := policy.Evaluate(c.Request().Context(), req)
			if d.Allowed {
				return next(c)
			}
			return Deny(c, d, logger)
		}
	}
}

// Deny renders a denied decision: a redirect for recoverable denials, 404
// for a missing resource and 500 when a guard could not decide.
func Deny(c echo.Context, d access.Decision, logger *slog.Logger) error {
	switch d.Reason {
	case access.ReasonNone:
		logger.Error("authorization failed", "action", c.Path(), "principal", Principal(c).String(), "err", d.Err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	case access.ReasonNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": string(d.Reason)})
	}
	body := echo.Map{"error": string(d.Reason), "redirect": d.Redirect}
	if d.Flash != "" {
		body["flash"] = echo.Map{"error_message": d.Flash}
	}
	c.Response().Header().Set(echo.HeaderLocation, d.Redirect)
	return c.JSON(http.StatusFound, body)
}
