package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
	"github.com/mayuuuu918/nagoyameshi/internal/service"
)

// ReservationsPath is the member's reservation list.
const ReservationsPath = "/reservations"

// ReservationHandler serves the member's reservations.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Restaurants  *service.RestaurantService
}

func NewReservationHandler(res *service.ReservationService, rest *service.RestaurantService) *ReservationHandler {
	return &ReservationHandler{Reservations: res, Restaurants: rest}
}

func (h *ReservationHandler) Index(c echo.Context) error {
	p, err := h.Reservations.ListForMember(c.Request().Context(), middleware.Principal(c), page(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Create returns what the booking form needs: the restaurant and its
// opening hours.
func (h *ReservationHandler) Create(c echo.Context) error {
	rid, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.Restaurants.Detail(c.Request().Context(), rid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurant": d})
}

func (h *ReservationHandler) Store(c echo.Context) error {
	rid, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in service.ReservationInput
	if err := bind(c, &in); err != nil {
		return err
	}
	res, err := h.Reservations.Create(c.Request().Context(), middleware.Principal(c), rid, in)
	if err != nil {
		return err
	}
	return done(c, http.StatusCreated, ReservationsPath, "Your reservation is confirmed.", res)
}

func (h *ReservationHandler) Destroy(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Reservations.Cancel(c.Request().Context(), middleware.Principal(c), id); err != nil {
		return err
	}
	return done(c, http.StatusOK, ReservationsPath, "Your reservation has been cancelled.", nil)
}
