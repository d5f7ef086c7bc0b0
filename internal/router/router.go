// Package router registers the member-facing and administrator-facing
// routes.  Every route names the action it performs; the guard chain for
// that action runs before the handler.
package router

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/billing"
	"github.com/mayuuuu918/nagoyameshi/internal/config"
	"github.com/mayuuuu918/nagoyameshi/internal/handler"
	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
	"github.com/mayuuuu918/nagoyameshi/internal/queue"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
	"github.com/mayuuuu918/nagoyameshi/internal/service"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

// Deps are the collaborators the routes are built from.  Redis and Events
// may be nil.
type Deps struct {
	Cfg     config.Config
	DB      *sql.DB
	Billing billing.Provider
	Redis   *redis.Client
	Events  queue.Publisher
	Logger  *slog.Logger
}

// app is the wired service graph shared by the route files.
type app struct {
	policy   access.Policy
	logger   *slog.Logger
	cache    *middleware.Cache
	services services
}

type services struct {
	restaurants  *service.RestaurantService
	reservations *service.ReservationService
	reviews      *service.ReviewService
	members      *service.MemberService
	auth         *service.AuthService
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	Register(e, d)
	return e
}

// Register installs the error handler, the identity and rate limiting
// middleware and all routes on e.
func Register(e *echo.Echo, d Deps) {
	if d.Events == nil {
		d.Events = queue.Nop{}
	}
	members := repository.NewMemberRepo(d.DB)
	restaurants := repository.NewRestaurantRepo(d.DB)
	categories := repository.NewCategoryRepo(d.DB)
	holidays := repository.NewHolidayRepo(d.DB)
	site := repository.NewSiteRepo(d.DB)

	a := &app{
		policy: access.DefaultPolicy(),
		logger: d.Logger,
		cache:  middleware.NewCache(d.Cfg.Cache, d.Redis, d.Logger),
		services: services{
			restaurants:  service.NewRestaurantService(restaurants, categories, holidays),
			reservations: service.NewReservationService(repository.NewReservationRepo(d.DB), restaurants, d.Events, d.Logger),
			reviews:      service.NewReviewService(repository.NewReviewRepo(d.DB), restaurants, d.Events, d.Logger),
			members:      service.NewMemberService(members, d.Cfg.BcryptCost),
			auth: service.NewAuthService(members, repository.NewAdminRepo(d.DB), repository.NewTokenRepo(d.DB), service.AuthConfig{
				MemberSecret:   d.Cfg.MemberSecret,
				AdminSecret:    d.Cfg.AdminSecret,
				AccessTTLMin:   d.Cfg.AccessTTLMin,
				RefreshTTLDays: d.Cfg.RefreshTTLDays,
			}),
		},
	}

	e.Validator = handler.Validator{}
	e.HTTPErrorHandler = handler.ErrorHandler(d.Logger)
	e.Use(
		middleware.Identify(access.NewResolver(d.Cfg.MemberSecret, d.Cfg.AdminSecret), access.NewBillingOracle(d.Billing)),
		middleware.RateLimit(d.Cfg.RateLimit, d.Redis, d.Logger),
	)

	e.GET("/healthz", handler.Health(d.DB))

	registerAuth(e, a)
	registerMember(e, a, handlers{
		catalog:      handler.NewCatalogHandler(a.services.restaurants, site),
		reviews:      handler.NewReviewHandler(a.services.reviews),
		reservations: handler.NewReservationHandler(a.services.reservations, a.services.restaurants),
		favorites:    handler.NewFavoriteHandler(repository.NewFavoriteRepo(d.DB), restaurants),
		profile:      handler.NewProfileHandler(a.services.members),
		subscription: handler.NewSubscriptionHandler(d.Billing),
	})
	registerAdmin(e, a, handler.NewAdminHandler(a.services.members, a.services.restaurants, categories, holidays, site))
}

// guard is the route middleware enforcing action.
func (a *app) guard(action access.Action, target ...middleware.Target) echo.MiddlewareFunc {
	var t middleware.Target
	if len(target) > 0 {
		t = target[0]
	}
	return middleware.Authorize(a.policy, action, t, a.logger)
}

func registerAuth(e *echo.Echo, a *app) {
	m := handler.NewAuthHandler(a.services.auth, a.services.members, utils.SpaceMember)
	e.POST("/register", m.Register)
	e.POST("/login", m.Login)
	e.POST("/refresh", m.Refresh)
	e.POST("/logout", m.Logout)

	ad := handler.NewAuthHandler(a.services.auth, a.services.members, utils.SpaceAdmin)
	e.POST("/admin/login", ad.Login)
	e.POST("/admin/refresh", ad.Refresh)
	e.POST("/admin/logout", ad.Logout)
}

// ownerLookup adapts a lookup by path parameter into an OwnerFunc.  A
// parameter that is not an id resolves to not found.
func ownerLookup(param string, lookup func(ctx context.Context, id uint64) (uint64, error)) func(echo.Context) access.OwnerFunc {
	return func(c echo.Context) access.OwnerFunc {
		id, err := strconv.ParseUint(c.Param(param), 10, 64)
		return func(ctx context.Context) (uint64, error) {
			if err != nil || id == 0 {
				return 0, access.ErrNotFound
			}
			return lookup(ctx, id)
		}
	}
}

func staticPath(p string) func(echo.Context) string {
	return func(echo.Context) string { return p }
}
