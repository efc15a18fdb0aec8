package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medrx/medrx/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	adminGroup := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/analytics", h.GetAnalytics)
}

func (h *Handler) GetAnalytics(c echo.Context) error {
	a, err := h.svc.Summarize(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, a)
}
