package doctor

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/internal/platform/auth"
	"github.com/medrx/medrx/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Public directory
	api.GET("/doctors", h.ListDoctors)

	profile := api.Group("/doctors/profile", auth.RequireRole(auth.RoleDoctor))
	profile.POST("", h.CreateProfile)
	profile.GET("", h.GetProfile)
	profile.PUT("", h.UpdateProfile)
}

func (h *Handler) CreateProfile(c echo.Context) error {
	var req CreateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	p, err := h.svc.CreateProfile(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), req)
	if errors.Is(err, ErrProfileExists) {
		return echo.NewHTTPError(http.StatusBadRequest, ErrProfileExists.Message)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.svc.GetProfile(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	p, err := h.svc.UpdateProfile(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// ListDoctors returns a plain JSON array; the total is sent in X-Total-Count.
func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Profile{}
	}
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(total))
	return c.JSON(http.StatusOK, items)
}
