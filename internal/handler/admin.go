package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mayuuuu918/nagoyameshi/internal/model"
	"github.com/mayuuuu918/nagoyameshi/internal/repository"
	"github.com/mayuuuu918/nagoyameshi/internal/service"
)

// AdminHandler serves the administrator surface.  Administrators act on
// every resource; no ownership applies here.
type AdminHandler struct {
	Members     *service.MemberService
	Restaurants *service.RestaurantService
	Categories  *repository.CategoryRepo
	Holidays    *repository.HolidayRepo
	Site        *repository.SiteRepo
}

func NewAdminHandler(m *service.MemberService, r *service.RestaurantService, cats *repository.CategoryRepo, hol *repository.HolidayRepo, site *repository.SiteRepo) *AdminHandler {
	return &AdminHandler{Members: m, Restaurants: r, Categories: cats, Holidays: hol, Site: site}
}

type categoryReq struct {
	Name string `json:"name" form:"name" validate:"required,max=255"`
}

type termReq struct {
	Content string `json:"content" form:"content" validate:"required"`
}

type companyReq struct {
	Name              string `json:"name" form:"name" validate:"required,max=255"`
	PostalCode        string `json:"postal_code" form:"postal_code" validate:"required,len=7,numeric"`
	Address           string `json:"address" form:"address" validate:"required,max=255"`
	Representative    string `json:"representative" form:"representative" validate:"required,max=255"`
	EstablishmentDate string `json:"establishment_date" form:"establishment_date" validate:"required,max=255"`
	Capital           string `json:"capital" form:"capital" validate:"required,max=255"`
	Business          string `json:"business" form:"business" validate:"required,max=255"`
	NumberOfEmployees string `json:"number_of_employees" form:"number_of_employees" validate:"required,max=255"`
}

func adminRestaurantPath(id uint64) string { return fmt.Sprintf("/admin/restaurants/%d", id) }

func (h *AdminHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"space": "admin"})
}

// UserIndex lists members, optionally filtered by name or kana.
func (h *AdminHandler) UserIndex(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	p, err := h.Members.List(c.Request().Context(), keyword, page(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"keyword": keyword, "items": p.Items, "total": p.Total, "page": p.Page, "last_page": p.LastPage})
}

func (h *AdminHandler) UserShow(c echo.Context) error {
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

func (h *AdminHandler) RestaurantIndex(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	p, err := h.Restaurants.Restaurants.AdminList(c.Request().Context(), keyword, page(c), service.AdminPerPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"keyword": keyword, "items": p.Items, "total": p.Total, "page": p.Page, "last_page": p.LastPage})
}

// RestaurantForm returns the choices of the restaurant form.
func (h *AdminHandler) RestaurantForm(c echo.Context) error {
	ctx := c.Request().Context()
	cats, err := h.Categories.All(ctx)
	if err != nil {
		return err
	}
	hols, err := h.Holidays.All(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats, "regular_holidays": hols})
}

func (h *AdminHandler) RestaurantShow(c echo.Context) error {
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

func (h *AdminHandler) StoreRestaurant(c echo.Context) error {
	var in service.RestaurantInput
	if err := bind(c, &in); err != nil {
		return err
	}
	r, err := h.Restaurants.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return done(c, http.StatusCreated, "/admin/restaurants", "The restaurant has been registered.", r)
}

func (h *AdminHandler) UpdateRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in service.RestaurantInput
	if err := bind(c, &in); err != nil {
		return err
	}
	r, err := h.Restaurants.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return done(c, http.StatusOK, adminRestaurantPath(id), "The restaurant has been updated.", r)
}

func (h *AdminHandler) DestroyRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Restaurants.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return done(c, http.StatusOK, "/admin/restaurants", "The restaurant has been deleted.", nil)
}

func (h *AdminHandler) CategoryIndex(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	p, err := h.Categories.List(c.Request().Context(), keyword, page(c), service.AdminPerPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"keyword": keyword, "items": p.Items, "total": p.Total, "page": p.Page, "last_page": p.LastPage})
}

func (h *AdminHandler) StoreCategory(c echo.Context) error {
	var req categoryReq
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	cat, err := h.Categories.Create(c.Request().Context(), strings.TrimSpace(req.Name))
	if err != nil {
		return err
	}
	return done(c, http.StatusCreated, "/admin/categories", "The category has been registered.", cat)
}

func (h *AdminHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req categoryReq
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	if err := h.Categories.Update(c.Request().Context(), id, strings.TrimSpace(req.Name)); err != nil {
		return err
	}
	return done(c, http.StatusOK, "/admin/categories", "The category has been updated.", nil)
}

func (h *AdminHandler) DestroyCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Categories.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return done(c, http.StatusOK, "/admin/categories", "The category has been deleted.", nil)
}

func (h *AdminHandler) Terms(c echo.Context) error {
	t, err := h.Site.Term(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *AdminHandler) UpdateTerms(c echo.Context) error {
	var req termReq
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	t, err := h.Site.SaveTerm(c.Request().Context(), req.Content)
	if err != nil {
		return err
	}
	return done(c, http.StatusOK, "/admin/terms", "The terms have been updated.", t)
}

func (h *AdminHandler) Company(c echo.Context) error {
	co, err := h.Site.Company(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, co)
}

func (h *AdminHandler) UpdateCompany(c echo.Context) error {
	var req companyReq
	if err := h.bindValid(c, &req); err != nil {
		return err
	}
	co, err := h.Site.SaveCompany(c.Request().Context(), model.Company{
		Name:              req.Name,
		PostalCode:        req.PostalCode,
		Address:           req.Address,
		Representative:    req.Representative,
		EstablishmentDate: req.EstablishmentDate,
		Capital:           req.Capital,
		Business:          req.Business,
		NumberOfEmployees: req.NumberOfEmployees,
	})
	if err != nil {
		return err
	}
	return done(c, http.StatusOK, "/admin/company", "The company profile has been updated.", co)
}

func (h *AdminHandler) bindValid(c echo.Context, dst any) error {
	if err := bind(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}
