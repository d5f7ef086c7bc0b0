package router

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/handler"
	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
)

type handlers struct {
	catalog      *handler.CatalogHandler
	reviews      *handler.ReviewHandler
	reservations *handler.ReservationHandler
	favorites    *handler.FavoriteHandler
	profile      *handler.ProfileHandler
	subscription *handler.SubscriptionHandler
}

func registerMember(e *echo.Echo, a *app, h handlers) {
	cached := a.cache.Middleware()
	// review and reservation writes move ratings and popularity
	purge := a.cache.PurgeOnWrite()

	e.GET("/", h.catalog.Home, a.guard(access.ActionHome), cached)
	e.GET("/restaurants", h.catalog.Index, a.guard(access.ActionRestaurantIndex), cached)
	e.GET("/restaurants/:id", h.catalog.Show, a.guard(access.ActionRestaurantShow), cached)
	e.GET("/terms", h.catalog.Terms, a.guard(access.ActionPageView))
	e.GET("/company", h.catalog.Company, a.guard(access.ActionPageView))

	reviewTarget := middleware.Target{
		Owner: func(c echo.Context) access.OwnerFunc {
			rid, err1 := strconv.ParseUint(c.Param("id"), 10, 64)
			vid, err2 := strconv.ParseUint(c.Param("review"), 10, 64)
			return func(ctx context.Context) (uint64, error) {
				if err1 != nil || err2 != nil {
					return 0, access.ErrNotFound
				}
				return a.services.reviews.OwnerOf(ctx, rid, vid)
			}
		},
		Index: func(c echo.Context) string {
			rid, _ := strconv.ParseUint(c.Param("id"), 10, 64)
			return handler.ReviewsPath(rid)
		},
	}
	e.GET("/restaurants/:id/reviews", h.reviews.Index, a.guard(access.ActionReviewIndex))
	e.POST("/restaurants/:id/reviews", h.reviews.Store, a.guard(access.ActionReviewCreate), purge)
	e.GET("/restaurants/:id/reviews/:review", h.reviews.Edit, a.guard(access.ActionReviewEdit, reviewTarget))
	e.PATCH("/restaurants/:id/reviews/:review", h.reviews.Update, a.guard(access.ActionReviewUpdate, reviewTarget), purge)
	e.DELETE("/restaurants/:id/reviews/:review", h.reviews.Destroy, a.guard(access.ActionReviewDestroy, reviewTarget), purge)

	e.GET("/restaurants/:id/reservations", h.reservations.Create, a.guard(access.ActionReservationCreate))
	e.POST("/restaurants/:id/reservations", h.reservations.Store, a.guard(access.ActionReservationCreate), purge)
	e.GET("/reservations", h.reservations.Index, a.guard(access.ActionReservationIndex))
	e.DELETE("/reservations/:id", h.reservations.Destroy, a.guard(access.ActionReservationDestroy, middleware.Target{
		Owner: ownerLookup("id", a.services.reservations.OwnerOf),
		Index: staticPath(handler.ReservationsPath),
	}), purge)

	e.GET("/favorites", h.favorites.Index, a.guard(access.ActionFavoriteIndex))
	e.POST("/favorites/:restaurant", h.favorites.Store, a.guard(access.ActionFavoriteStore))
	e.DELETE("/favorites/:restaurant", h.favorites.Destroy, a.guard(access.ActionFavoriteDestroy))

	profileTarget := middleware.Target{
		Owner: ownerLookup("id", func(ctx context.Context, id uint64) (uint64, error) {
			m, err := a.services.members.Get(ctx, id)
			return m.ID, err
		}),
		Index: staticPath(handler.ProfilePath),
	}
	e.GET("/user", h.profile.Show, a.guard(access.ActionProfileShow))
	e.GET("/user/:id/edit", h.profile.Edit, a.guard(access.ActionProfileEdit, profileTarget))
	e.PATCH("/user/:id", h.profile.Update, a.guard(access.ActionProfileUpdate, profileTarget))

	signUp := a.guard(access.ActionSubscriptionCreate)
	manage := a.guard(access.ActionSubscriptionManage)
	e.GET("/subscription/create", h.subscription.Create, signUp)
	e.POST("/subscription", h.subscription.Store, signUp)
	e.GET("/subscription/edit", h.subscription.Edit, manage)
	e.PATCH("/subscription", h.subscription.Update, manage)
	e.GET("/subscription/cancel", h.subscription.Cancel, manage)
	e.DELETE("/subscription", h.subscription.Destroy, manage)
}
