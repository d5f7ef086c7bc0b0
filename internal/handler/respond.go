// Package handler exposes the member-facing and administrator-facing HTTP
// handlers.  Handlers return domain errors unchanged; ErrorHandler turns
// them into responses.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/billing"
	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
	"github.com/mayuuuu918/nagoyameshi/internal/service"
)

var errBadID = echo.NewHTTPError(http.StatusNotFound, "not-found")

// pathID parses a numeric path parameter.  Anything that is not a positive
// integer cannot name a row, so it is reported as not found.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return id, nil
}

// page reads the 1-based ?page= parameter.
func page(c echo.Context) int {
	p, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// bind decodes the body or form into dst.  Malformed bodies are reported
// like any other invalid input.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return service.Invalid("body", "could not be decoded")
	}
	return nil
}

// done answers a successful mutation with where to go next and the
// message to flash there.
func done(c echo.Context, status int, redirect, flash string, data any) error {
	body := echo.Map{"redirect": redirect, "flash_message": flash}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func redirect(c echo.Context, reason access.Reason, to string) error {
	c.Response().Header().Set(echo.HeaderLocation, to)
	return c.JSON(http.StatusFound, echo.Map{"error": string(reason), "redirect": to})
}

// Validator plugs the service validator into echo so that c.Validate
// reports the same per-field errors.
type Validator struct{}

func (Validator) Validate(i any) error { return service.Check(i) }

// ErrorHandler maps domain errors onto HTTP responses and logs the rest.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var (
			ve *service.ValidationError
			he *echo.HTTPError
		)
		switch {
		case errors.As(err, &ve):
			err = c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": ve.Fields})
		case errors.Is(err, access.ErrNotFound), errors.Is(err, repository.ErrNotFound):
			err = c.JSON(http.StatusNotFound, echo.Map{"error": string(access.ReasonNotFound)})
		case errors.Is(err, access.ErrUnauthenticated):
			err = redirect(c, access.ReasonUnauthenticated, access.PathLogin)
		case errors.Is(err, access.ErrNotOwner):
			// ownership changed between the guard and the write
			index := middleware.IndexPath(c)
			if index == "" {
				index = "/"
			}
			err = middleware.Deny(c, access.NotOwned(index), logger)
		case errors.Is(err, billing.ErrAlreadySubscribed):
			err = redirect(c, access.ReasonAlreadySubscribed, access.PathSubscriptionEdit)
		case errors.Is(err, billing.ErrNoSubscription):
			err = redirect(c, access.ReasonSubscriptionRequired, access.PathSubscriptionCreate)
		case errors.Is(err, billing.ErrPaymentMethodRequired):
			err = c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": map[string]string{"payment_method": "is required"}})
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, repository.ErrInvalidRefresh):
			err = c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
		case errors.As(err, &he):
			err = c.JSON(he.Code, echo.Map{"error": he.Message})
		default:
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
			err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		if err != nil {
			logger.Error("write error response", "err", err)
		}
	}
}
