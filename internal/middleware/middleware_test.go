package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/config"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

type countingOracle struct {
	calls  int
	active bool
	err    error
}

func (o *countingOracle) IsActive(context.Context, uint64) (bool, error) {
	o.calls++
	return o.active, o.err
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func serve(t *testing.T, oracle access.Oracle, action access.Action, token string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Use(Identify(access.NewResolver("m", "a"), oracle))
	e.GET("/x", h, Authorize(access.DefaultPolicy(), action, Target{}, quiet))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func memberToken(t *testing.T) string {
	t.Helper()
	tok, err := utils.NewAccessToken("m", utils.SpaceMember, 7, 5)
	if err != nil {
		t.Fatal(err)
	}
	return tok.Token
}

func TestSubscriptionAskedOncePerRequest(t *testing.T) {
	oracle := &countingOracle{active: true}
	var seen bool
	rec := serve(t, oracle, access.ActionReservationIndex, memberToken(t), func(c echo.Context) error {
		var err error
		seen, err = ViewerIsSubscribed(c)
		if err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK || !seen {
		t.Fatalf("status %d, subscribed %v", rec.Code, seen)
	}
	if oracle.calls != 1 {
		t.Fatalf("oracle calls = %d, want 1", oracle.calls)
	}

	serve(t, oracle, access.ActionReservationIndex, memberToken(t), func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if oracle.calls != 2 {
		t.Fatalf("second request reused the first answer: calls = %d", oracle.calls)
	}
}

func TestOracleFailureIsInternalError(t *testing.T) {
	oracle := &countingOracle{err: errors.New("billing down")}
	called := false
	rec := serve(t, oracle, access.ActionReservationCreate, memberToken(t), func(c echo.Context) error {
		called = true
		return nil
	})
	if rec.Code != http.StatusInternalServerError || called {
		t.Fatalf("status %d, handler called %v", rec.Code, called)
	}
}

func TestGuestSkipsOracle(t *testing.T) {
	oracle := &countingOracle{}
	rec := serve(t, oracle, access.ActionReservationCreate, "", func(c echo.Context) error { return nil })
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != access.PathLogin {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	if oracle.calls != 0 {
		t.Fatalf("oracle consulted for a guest: %d", oracle.calls)
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/restaurants", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/restaurants")
	c.Set(principalKey, access.Member(3))

	cases := map[string]string{
		"ip":              "rl:10.0.0.1",
		"principal":       "rl:member:3",
		"principal_route": "rl:member:3:GET /restaurants",
		"":                "rl:10.0.0.1:member:3:GET /restaurants",
	}
	for strategy, want := range cases {
		if got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c); got != want {
			t.Errorf("strategy %q: key = %q, want %q", strategy, got, want)
		}
	}
}

func TestDisabledCacheIsTransparent(t *testing.T) {
	ch := NewCache(config.CacheConfig{Enabled: true}, nil, quiet)
	if err := ch.Purge(context.Background()); err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, ch.Middleware())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "ok" || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("body %q X-Cache %q", rec.Body.String(), rec.Header().Get("X-Cache"))
	}
}

// commandLog answers redis commands in-process and records their names.
// GET misses, SCAN returns keys in a single page, everything else succeeds.
type commandLog struct {
	keys []string
	cmds []string
}

func (l *commandLog) DialHook(next redis.DialHook) redis.DialHook { return next }

func (l *commandLog) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (l *commandLog) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		l.cmds = append(l.cmds, cmd.Name())
		switch c := cmd.(type) {
		case *redis.ScanCmd:
			c.SetVal(l.keys, 0)
		case *redis.StringCmd:
			c.SetErr(redis.Nil)
			return redis.Nil
		}
		return nil
	}
}

func (l *commandLog) ran(name string) bool {
	for _, c := range l.cmds {
		if c == name {
			return true
		}
	}
	return false
}

func TestPurgeOnWrite(t *testing.T) {
	cases := []struct {
		name   string
		method string
		h      echo.HandlerFunc
		purged bool
	}{
		{"created", http.MethodPost, func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, true},
		{"deleted", http.MethodDelete, func(c echo.Context) error { return c.NoContent(http.StatusOK) }, true},
		{"read", http.MethodGet, func(c echo.Context) error { return c.NoContent(http.StatusOK) }, false},
		{"handler error", http.MethodPost, func(echo.Context) error {
			return echo.NewHTTPError(http.StatusUnprocessableEntity)
		}, false},
		{"client error status", http.MethodPatch, func(c echo.Context) error { return c.NoContent(http.StatusNotFound) }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := &commandLog{keys: []string{"cache:a", "cache:b"}}
			rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
			rdb.AddHook(log)
			t.Cleanup(func() { _ = rdb.Close() })

			ch := NewCache(config.CacheConfig{Enabled: true, Prefix: "cache"}, rdb, quiet)
			e := echo.New()
			e.Add(tc.method, "/x", tc.h, ch.PurgeOnWrite())
			e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, "/x", nil))

			if got := log.ran("scan") && log.ran("del"); got != tc.purged {
				t.Fatalf("purged = %v, want %v (commands %v)", got, tc.purged, log.cmds)
			}
		})
	}
}
