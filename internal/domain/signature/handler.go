package signature

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/workplace/workplace/internal/domain/opinion"
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
	g.POST("/opinions/:id/signature/prepare", h.Prepare)
	g.POST("/opinions/:id/signature", h.Sign)
	g.GET("/opinions/:id/signature/verify", h.Verify)
}

func (h *Handler) Prepare(c echo.Context) error {
	opinionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid opinion id")
	}

	res, err := h.svc.Prepare(c.Request().Context(), opinionID)
	switch {
	case errors.Is(err, opinion.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "opinion not found")
	case errors.Is(err, opinion.ErrWrongState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

type signRequest struct {
	Method        Method `json:"method"`
	DocumentHash  string `json:"document_hash"`
	SignatureData string `json:"signature_data"`
}

func (h *Handler) Sign(c echo.Context) error {
	ctx := c.Request().Context()
	id := auth.IdentityFromContext(ctx)

	opinionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid opinion id")
	}

	var req signRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.svc.Sign(ctx, opinionID, id.ProfessionalID, id.Level, req.Method, req.DocumentHash, req.SignatureData)
	switch {
	case errors.Is(err, ErrIntegrity):
		return c.JSON(http.StatusConflict, map[string]string{
			"error":  "integrity_failure",
			"detail": "document was modified between preparation and signing",
		})
	case errors.Is(err, ErrNotSigner):
		return echo.NewHTTPError(http.StatusForbidden, "signer is not the authoring professional")
	case errors.Is(err, ErrAlreadySigned):
		return echo.NewHTTPError(http.StatusConflict, "opinion is already signed")
	case errors.Is(err, opinion.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "opinion not found")
	case errors.Is(err, opinion.ErrWrongState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Verify(c echo.Context) error {
	opinionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid opinion id")
	}

	res, err := h.svc.Verify(c.Request().Context(), opinionID)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, opinion.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "signature not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}
