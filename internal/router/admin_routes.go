package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/handler"
)

// registerAdmin mounts the administrator surface under /admin.  Writes to
// restaurants and categories invalidate the public catalogue cache.
func registerAdmin(e *echo.Echo, a *app, h *handler.AdminHandler) {
	g := e.Group("/admin", a.guard(access.ActionAdmin))
	g.GET("/home", h.Home)

	g.GET("/users", h.UserIndex)
	g.GET("/users/:id", h.UserShow)

	catalog := g.Group("", a.cache.PurgeOnWrite())
	catalog.GET("/restaurants", h.RestaurantIndex)
	catalog.GET("/restaurants/create", h.RestaurantForm)
	catalog.POST("/restaurants", h.StoreRestaurant)
	catalog.GET("/restaurants/:id", h.RestaurantShow)
	catalog.PATCH("/restaurants/:id", h.UpdateRestaurant)
	catalog.DELETE("/restaurants/:id", h.DestroyRestaurant)

	catalog.GET("/categories", h.CategoryIndex)
	catalog.POST("/categories", h.StoreCategory)
	catalog.PATCH("/categories/:id", h.UpdateCategory)
	catalog.DELETE("/categories/:id", h.DestroyCategory)

	g.GET("/terms", h.Terms)
	g.PATCH("/terms", h.UpdateTerms)
	g.GET("/company", h.Company)
	g.PATCH("/company", h.UpdateCompany)
}
