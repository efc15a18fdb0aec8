package prescribing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
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
	// Read endpoints – any authenticated role, filtered per caller
	read := api.Group("/prescriptions", auth.RequireAuthenticated())
	read.GET("", h.ListPrescriptions)
	read.GET("/:id", h.GetPrescription)

	// Write endpoints – doctor
	api.POST("/prescriptions", h.CreatePrescription, auth.RequireRole(auth.RoleDoctor))
	api.PUT("/prescriptions/:id", h.UpdatePrescription, auth.RequireRole(auth.RoleDoctor))
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var req CreatePrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), req)
	if errors.Is(err, ErrPrescriptionExists) {
		return echo.NewHTTPError(http.StatusBadRequest, ErrPrescriptionExists.Message)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	who, _ := auth.IdentityFromContext(ctx)
	items, total, err := h.svc.ListFor(ctx, who, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Prescription{}
	}
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(total))
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	ctx := c.Request().Context()
	who, _ := auth.IdentityFromContext(ctx)
	p, err := h.svc.GetForUser(ctx, id, who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var req UpdatePrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Update(ctx, id, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
