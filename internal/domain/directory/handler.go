package directory

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/platform/auth"
	"github.com/workplace/workplace/pkg/pagination"
)

type Handler struct {
	svc      *Service
	profRepo professional.Repository
}

func NewHandler(svc *Service, profRepo professional.Repository) *Handler {
	return &Handler{svc: svc, profRepo: profRepo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("professional"))
	g.GET("/cases/available", h.ListAvailable)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)
	pg := pagination.FromContext(c)

	// Load the full profile: matching needs the current case load, which the
	// token does not carry.
	prof, err := h.profRepo.GetByID(ctx, id.ProfessionalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "professional profile not found")
	}

	entries, total, err := h.svc.ListAvailable(ctx, prof, Filters{
		Category: c.QueryParam("category"),
	}, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
