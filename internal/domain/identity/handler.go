package identity

import (
	"errors"
	"net/http"

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
	// Public endpoints
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/token", h.TokenForm)

	api.POST("/auth/validate-token", h.ValidateToken, auth.RequireAuthenticated())

	profile := api.Group("/users/profile", auth.RequireAuthenticated())
	profile.GET("", h.GetProfile)
	profile.PUT("", h.UpdateProfile)

	api.GET("/users", h.ListUsers, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), req)
	if errors.Is(err, ErrEmailTaken) {
		// registration reports a taken email as a bad request
		return echo.NewHTTPError(http.StatusBadRequest, ErrEmailTaken.Message)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	return h.login(c, req)
}

// TokenForm accepts OAuth2 password-form fields (username, password).
func (h *Handler) TokenForm(c echo.Context) error {
	req := LoginRequest{
		Email:    c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	return h.login(c, req)
}

func (h *Handler) login(c echo.Context, req LoginRequest) error {
	tok, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, tok)
}

// ValidateToken echoes the identity behind the bearer token. Deployments
// running with remote auth call this endpoint.
func (h *Handler) ValidateToken(c echo.Context) error {
	id, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return auth.ErrInvalidToken
	}
	return c.JSON(http.StatusOK, id)
}

func (h *Handler) GetProfile(c echo.Context) error {
	u, err := h.svc.GetProfile(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), req)
	if errors.Is(err, ErrEmailTaken) {
		return echo.NewHTTPError(http.StatusBadRequest, "email already in use")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListUsers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*User{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg).WithLinks(c.Path()))
}
