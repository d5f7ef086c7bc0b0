package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/repository"
	"github.com/mayuuuu918/nagoyameshi/internal/service"
)

// CatalogHandler serves the public pages: home, restaurant search and
// detail, terms and company.  Responses do not depend on who is asking so
// that they can be cached.
type CatalogHandler struct {
	Restaurants *service.RestaurantService
	Site        *repository.SiteRepo
}

func NewCatalogHandler(r *service.RestaurantService, site *repository.SiteRepo) *CatalogHandler {
	return &CatalogHandler{Restaurants: r, Site: site}
}

func (h *CatalogHandler) Home(c echo.Context) error {
	home, err := h.Restaurants.Home(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, home)
}

// Index handles GET /restaurants.  At most one of keyword, category_id
// and price filters the result, in that order of precedence.
func (h *CatalogHandler) Index(c echo.Context) error {
	var params service.SearchParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &params); err != nil {
		return service.Invalid("query", "could not be decoded")
	}
	q := params.Query()
	res, err := h.Restaurants.Search(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":       res.Items,
		"total":       res.Total,
		"page":        res.Page,
		"per_page":    res.PerPage,
		"last_page":   res.LastPage,
		"keyword":     q.Keyword,
		"category_id": q.CategoryID,
		"price":       q.MaxPrice,
		"sort":        q.Sort,
		"direction":   q.Direction,
	})
}

func (h *CatalogHandler) Show(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.Restaurants.Detail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *CatalogHandler) Terms(c echo.Context) error {
	t, err := h.Site.Term(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *CatalogHandler) Company(c echo.Context) error {
	co, err := h.Site.Company(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, co)
}
