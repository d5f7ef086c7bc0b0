package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

type subscribed struct{}

func (subscribed) IsActive(context.Context, uint64) (bool, error) { return true, nil }

func TestLateNotOwnerMatchesGuardDenial(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	tok, err := utils.NewAccessToken("m", utils.SpaceMember, 7, 5)
	if err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(quiet)
	e.Use(middleware.Identify(access.NewResolver("m", "a"), subscribed{}))
	owned := middleware.Target{
		Owner: func(echo.Context) access.OwnerFunc {
			return func(context.Context) (uint64, error) { return 7, nil }
		},
		Index: func(echo.Context) string { return ReservationsPath },
	}
	// the guard sees member 7 as owner; the row changes hands before the delete
	e.DELETE("/reservations/:id", func(echo.Context) error {
		return fmt.Errorf("delete reservation: %w", access.ErrNotOwner)
	}, middleware.Authorize(access.DefaultPolicy(), access.ActionReservationDestroy, owned, quiet))
	e.DELETE("/elsewhere", func(echo.Context) error { return access.ErrNotOwner })

	cases := []struct {
		path string
		want string
	}{
		{"/reservations/1", ReservationsPath},
		{"/elsewhere", "/"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, tc.path, nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != tc.want {
				t.Fatalf("status %d location %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
			}
			var body struct {
				Error    string            `json:"error"`
				Redirect string            `json:"redirect"`
				Flash    map[string]string `json:"flash"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error != string(access.ReasonNotOwner) || body.Redirect != tc.want || body.Flash["error_message"] != access.NotOwnerFlash {
				t.Fatalf("body = %+v", body)
			}
		})
	}
}
