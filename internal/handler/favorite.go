package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/access"
	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
)

// FavoritesPerPage is the page size of the favorites list.
const FavoritesPerPage = 15

// FavoriteHandler serves /favorites.
type FavoriteHandler struct {
	Favorites   *repository.FavoriteRepo
	Restaurants *repository.RestaurantRepo
}

func NewFavoriteHandler(f *repository.FavoriteRepo, r *repository.RestaurantRepo) *FavoriteHandler {
	return &FavoriteHandler{Favorites: f, Restaurants: r}
}

func (h *FavoriteHandler) Index(c echo.Context) error {
	memberID, ok := middleware.Principal(c).MemberID()
	if !ok {
		return access.ErrUnauthenticated
	}
	p, err := h.Favorites.ListByMember(c.Request().Context(), memberID, page(c), FavoritesPerPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *FavoriteHandler) Store(c echo.Context) error {
	memberID, rid, err := h.target(c)
	if err != nil {
		return err
	}
	if err := h.Favorites.Add(c.Request().Context(), memberID, rid); err != nil {
		return err
	}
	return done(c, http.StatusCreated, "/restaurants/"+c.Param("restaurant"), "Added to your favorites.", nil)
}

func (h *FavoriteHandler) Destroy(c echo.Context) error {
	memberID, rid, err := h.target(c)
	if err != nil {
		return err
	}
	if err := h.Favorites.Remove(c.Request().Context(), memberID, rid); err != nil {
		return err
	}
	return done(c, http.StatusOK, "/restaurants/"+c.Param("restaurant"), "Removed from your favorites.", nil)
}

func (h *FavoriteHandler) target(c echo.Context) (uint64, uint64, error) {
	memberID, ok := middleware.Principal(c).MemberID()
	if !ok {
		return 0, 0, access.ErrUnauthenticated
	}
	rid, err := pathID(c, "restaurant")
	if err != nil {
		return 0, 0, err
	}
	if _, err := h.Restaurants.GetByID(c.Request().Context(), rid); err != nil {
		return 0, 0, err
	}
	return memberID, rid, nil
}
