package opinion

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
	g.PUT("/cases/:id/opinion/draft", h.SaveDraft)
	g.GET("/cases/:id/opinion/draft", h.GetDraft)
	g.POST("/cases/:id/opinion/finalize", h.Finalize)
}

type saveDraftRequest struct {
	Sections         Sections `json:"sections"`
	ExpectedSequence *int     `json:"expected_sequence,omitempty"`
}

func (h *Handler) SaveDraft(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	var req saveDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d, err := h.svc.SaveDraft(ctx, caseID, id.ProfessionalID, req.Sections, req.ExpectedSequence)
	switch {
	case errors.Is(err, ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, "not the assigned professional")
	case errors.Is(err, ErrEditConflict):
		return echo.NewHTTPError(http.StatusConflict, "draft was modified by another session")
	case errors.Is(err, ErrWrongState):
		return echo.NewHTTPError(http.StatusConflict, "draft is no longer editable")
	case errors.Is(err, ErrUnknownSection):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"draft_id":      d.ID,
		"edit_sequence": d.EditSequence,
		"last_modified": d.LastModified,
	})
}

func (h *Handler) GetDraft(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	d, err := h.svc.GetDraft(ctx, caseID, id.ProfessionalID)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "draft not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Finalize(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	var req saveDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	d, err := h.svc.Finalize(ctx, caseID, id.ProfessionalID, req.Sections)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":            "incomplete sections",
			"missing_sections": verr.Missing,
		})
	case errors.Is(err, ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, "not the assigned professional")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "draft not found")
	case errors.Is(err, ErrWrongState):
		return echo.NewHTTPError(http.StatusConflict, "draft is not editable")
	case errors.Is(err, ErrUnknownSection):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"draft_id":     d.ID,
		"finalized_at": d.FinalizedAt,
		"status":       d.Status,
	})
}
