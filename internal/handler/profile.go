package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
	"github.com/mayuuuu918/nagoyameshi/internal/service"
)

// ProfilePath is the member's own profile page.
const ProfilePath = "/user"

// ProfileHandler serves /user.
type ProfileHandler struct {
	Members *service.MemberService
}

func NewProfileHandler(m *service.MemberService) *ProfileHandler { return &ProfileHandler{Members: m} }

func (h *ProfileHandler) Show(c echo.Context) error {
	m, err := h.Members.Profile(c.Request().Context(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *ProfileHandler) Edit(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.Members.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in service.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	m, err := h.Members.UpdateProfile(c.Request().Context(), middleware.Principal(c), id, in)
	if err != nil {
		return err
	}
	return done(c, http.StatusOK, ProfilePath, "Your profile has been updated.", m)
}
