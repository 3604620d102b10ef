package peerreview

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/workplace/workplace/internal/domain/opinion"
	"github.com/workplace/workplace/internal/platform/auth"
	"github.com/workplace/workplace/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("professional"))
	g.GET("/reviews", h.ListPending)
	g.POST("/reviews/:id/complete", h.Complete)

	api.POST("/opinions/:id/deliver", h.MarkDelivered, auth.RequireRole("admin"))
}

func (h *Handler) ListPending(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPending(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Complete(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid review id")
	}

	reviewed, err := h.svc.Complete(ctx, reviewID, id.ProfessionalID, id.Level)
	switch {
	case errors.Is(err, ErrReviewerLevel):
		return echo.NewHTTPError(http.StatusForbidden, "distinguished level required to complete reviews")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "review not found")
	case errors.Is(err, ErrNotPending):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reviewed)
}

func (h *Handler) MarkDelivered(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)

	opinionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid opinion id")
	}

	err = h.svc.MarkDelivered(ctx, opinionID, id.ProfessionalID)
	switch {
	case errors.Is(err, opinion.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "opinion not found")
	case errors.Is(err, opinion.ErrWrongState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
