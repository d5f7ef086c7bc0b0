package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
	"github.com/mayuuuu918/nagoyameshi/internal/service"
)

// ReviewHandler serves /restaurants/:id/reviews.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(r *service.ReviewService) *ReviewHandler { return &ReviewHandler{Reviews: r} }

// ReviewsPath is the review index of a restaurant, where review actions
// return to.
func ReviewsPath(restaurantID uint64) string {
	return fmt.Sprintf("/restaurants/%d/reviews", restaurantID)
}

// Index lists reviews.  Members without a paid plan only see the newest
// few; the answer comes from the same per-request oracle the guards use.
func (h *ReviewHandler) Index(c echo.Context) error {
	rid, err := pathID(c, "id")
	if err != nil {
		return err
	}
	subscribed, err := middleware.ViewerIsSubscribed(c)
	if err != nil {
		return err
	}
	listing, err := h.Reviews.ListForRestaurant(c.Request().Context(), rid, subscribed, page(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

func (h *ReviewHandler) Store(c echo.Context) error {
	rid, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in service.ReviewInput
	if err := bind(c, &in); err != nil {
		return err
	}
	rv, err := h.Reviews.Create(c.Request().Context(), middleware.Principal(c), rid, in)
	if err != nil {
		return err
	}
	return done(c, http.StatusCreated, ReviewsPath(rid), "Your review has been posted.", rv)
}

// Edit returns the review being edited.
func (h *ReviewHandler) Edit(c echo.Context) error {
	rid, vid, err := reviewIDs(c)
	if err != nil {
		return err
	}
	rv, err := h.Reviews.Get(c.Request().Context(), rid, vid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rv)
}

func (h *ReviewHandler) Update(c echo.Context) error {
	rid, vid, err := reviewIDs(c)
	if err != nil {
		return err
	}
	var in service.ReviewInput
	if err := bind(c, &in); err != nil {
		return err
	}
	rv, err := h.Reviews.Update(c.Request().Context(), middleware.Principal(c), rid, vid, in)
	if err != nil {
		return err
	}
	return done(c, http.StatusOK, ReviewsPath(rid), "Your review has been updated.", rv)
}

func (h *ReviewHandler) Destroy(c echo.Context) error {
	rid, vid, err := reviewIDs(c)
	if err != nil {
		return err
	}
	if err := h.Reviews.Destroy(c.Request().Context(), middleware.Principal(c), rid, vid); err != nil {
		return err
	}
	return done(c, http.StatusOK, ReviewsPath(rid), "Your review has been deleted.", nil)
}

func reviewIDs(c echo.Context) (uint64, uint64, error) {
	rid, err := pathID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	vid, err := pathID(c, "review")
	if err != nil {
		return 0, 0, err
	}
	return rid, vid, nil
}
