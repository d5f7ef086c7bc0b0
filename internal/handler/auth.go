package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/middleware"
	"github.com/mayuuuu918/nagoyameshi/internal/service"
	"github.com/mayuuuu918/nagoyameshi/internal/utils"
)

// AuthHandler serves login, refresh and logout for one principal space,
// plus member registration.
type AuthHandler struct {
	Auth    *service.AuthService
	Members *service.MemberService
	Space   utils.Space
}

func NewAuthHandler(auth *service.AuthService, members *service.MemberService, space utils.Space) *AuthHandler {
	return &AuthHandler{Auth: auth, Members: members, Space: space}
}

type loginReq struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	ID       uint64    `json:"id"`
	Space    string    `json:"space"`
	Access   tokenPart `json:"access"`
	Refresh  tokenPart `json:"refresh"`
	Redirect string    `json:"redirect"`
}

func (h *AuthHandler) respond(c echo.Context, status int, id uint64, pair service.TokenPair) error {
	home := "/"
	if h.Space == utils.SpaceAdmin {
		home = "/admin/home"
	}
	return c.JSON(status, authResp{
		ID:       id,
		Space:    string(h.Space),
		Access:   tokenPart{Token: pair.Access.Token, Expires: pair.Access.Exp},
		Refresh:  tokenPart{Token: pair.Refresh.Raw, Expires: pair.Refresh.Exp},
		Redirect: home,
	})
}

// Register creates a member account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Members.Register(ctx, in)
	if err != nil {
		return err
	}
	pair, err := h.Auth.Issue(ctx, utils.SpaceMember, m.ID)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, m.ID, pair)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, pair, err := h.Auth.Login(ctx, h.Space, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, id, pair)
}

// Refresh rotates a refresh token of this space.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return service.Invalid("refresh_token", "is required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, pair, err := h.Auth.Refresh(ctx, h.Space, raw)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, id, pair)
}

// Logout revokes the given refresh token, or every session of the
// requester when none is sent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	var id uint64
	p := middleware.Principal(c)
	if (h.Space == utils.SpaceMember && p.IsMember()) || (h.Space == utils.SpaceAdmin && p.IsAdministrator()) {
		id = p.ID()
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, h.Space, id, strings.TrimSpace(req.RefreshToken)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
