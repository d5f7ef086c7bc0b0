package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mayuuuu918/nagoyameshi/internal/config"
)

// recorder tees the response body into a bounded buffer.
type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
	over   bool
}

func (w *recorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	if !w.over {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.over = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

// Cache stores successful public catalogue responses in Redis.  Entries
// are keyed under Prefix so that administrator writes can drop them all.
type Cache struct {
	cfg     config.CacheConfig
	methods map[string]bool
	rdb     *redis.Client
	logger  *slog.Logger
}

// NewCache returns a cache; a nil client or a disabled config makes every
// method a no-op.
func NewCache(cfg config.CacheConfig, rdb *redis.Client, logger *slog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return &Cache{cfg: cfg, methods: cfg.MethodSet(), rdb: rdb, logger: logger}
}

func (ch *Cache) enabled() bool { return ch != nil && ch.cfg.Enabled && ch.rdb != nil }

func (ch *Cache) key(c echo.Context) string {
	r := c.Request()
	var tail string
	switch strings.ToLower(ch.cfg.KeyStrategy) {
	case "route":
		tail = c.Path() + "|" + paramValues(c)
	case "method_route_query":
		tail = r.Method + "|" + c.Path() + "|" + paramValues(c) + "|" + r.URL.RawQuery
	default:
		tail = c.Path() + "|" + paramValues(c) + "|" + r.URL.RawQuery
	}
	return fmt.Sprintf("%s:%x", ch.cfg.Prefix, sha1.Sum([]byte(tail)))
}

func paramValues(c echo.Context) string { return strings.Join(c.ParamValues(), "/") }

// Middleware serves cached 200 responses and records fresh ones.  It must
// sit behind Authorize so that a cached page is never shown to a requester
// the guards would have turned away.
func (ch *Cache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !ch.enabled() {
			return next
		}
		return func(c echo.Context) error {
			if !ch.methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := ch.key(c)

			if raw, err := ch.rdb.Get(ctx, key).Bytes(); err == nil {
				var cr cachedResponse
				if json.Unmarshal(raw, &cr) == nil {
					h := c.Response().Header()
					for k, vs := range cr.Header {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						h[k] = vs
					}
					h.Set("X-Cache", "HIT")
					return c.Blob(cr.Status, h.Get(echo.HeaderContentType), cr.Body)
				}
			}

			rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: ch.cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.over {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := json.Marshal(cachedResponse{Status: rec.status, Header: hdr, Body: rec.buf.Bytes()})
			if err != nil {
				return nil
			}
			if err := ch.rdb.Set(context.WithoutCancel(ctx), key, payload, ch.cfg.TTL).Err(); err != nil {
				ch.logger.Warn("cache store failed", "key", key, "err", err)
			}
			return nil
		}
	}
}

// Purge deletes every cached catalogue response.
func (ch *Cache) Purge(ctx context.Context) error {
	if !ch.enabled() {
		return nil
	}
	iter := ch.rdb.Scan(ctx, 0, ch.cfg.Prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return ch.rdb.Del(ctx, keys...).Err()
}

// PurgeOnWrite drops the catalogue cache after every successful
// non-GET request it wraps.
func (ch *Cache) PurgeOnWrite() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !ch.enabled() {
			return next
		}
		return func(c echo.Context) error {
			err := next(c)
			if err != nil || c.Request().Method == http.MethodGet || c.Response().Status >= http.StatusBadRequest {
				return err
			}
			if perr := ch.Purge(c.Request().Context()); perr != nil {
				ch.logger.Warn("cache purge failed", "err", perr)
			}
			return nil
		}
	}
}
