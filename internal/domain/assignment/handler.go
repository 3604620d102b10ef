package assignment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/workplace/workplace/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("professional"))
	g.POST("/cases/:id/claim", h.Claim)
	g.POST("/cases/:id/release", h.Release)
}

func (h *Handler) Claim(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	a, err := h.svc.Claim(ctx, caseID, id.ProfessionalID, id.Level)
	switch {
	case errors.Is(err, ErrConflict):
		// Expected outcome of a lost race; the winner's identity is not exposed.
		return echo.NewHTTPError(http.StatusConflict, "case already assigned")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Release(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	err = h.svc.Release(ctx, caseID, id.ProfessionalID, id.HasRole("admin"))
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	case errors.Is(err, ErrNotAssignee):
		return echo.NewHTTPError(http.StatusForbidden, "not the current assignee")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
