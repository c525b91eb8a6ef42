package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexla-dev/doc-analysis-api/internal/service"
	appErrors "github.com/nexla-dev/doc-analysis-api/pkg/errors"
	"github.com/nexla-dev/doc-analysis-api/pkg/response"
)

// AnalysisTypeHandler exposes analysis type endpoints.
type AnalysisTypeHandler struct {
	types *service.AnalysisTypeService
}

// NewAnalysisTypeHandler constructs AnalysisTypeHandler.
func NewAnalysisTypeHandler(types *service.AnalysisTypeService) *AnalysisTypeHandler {
	return &AnalysisTypeHandler{types: types}
}

// List godoc
// @Summary List analysis types
// @Tags AnalysisTypes
// @Produce json
// @Param only_active query bool false "Restrict to active types" default(true)
// @Success 200 {object} response.Envelope
// @Router /analysis-types [get]
func (h *AnalysisTypeHandler) List(c *gin.Context) {
	includeInactive := c.DefaultQuery("only_active", "true") == "false"

	types, err := h.types.List(c.Request.Context(), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Get godoc
// @Summary Get analysis type detail
// @Tags AnalysisTypes
// @Produce json
// @Param id path string true "Analysis type ID"
// @Success 200 {object} response.Envelope
// @Router /analysis-types/{id} [get]
func (h *AnalysisTypeHandler) Get(c *gin.Context) {
	at, err := h.types.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, at, nil)
}

// Create godoc
// @Summary Create analysis type
// @Tags AnalysisTypes
// @Accept json
// @Produce json
// @Param payload body service.CreateAnalysisTypeRequest true "Analysis type payload"
// @Success 201 {object} response.Envelope
// @Router /analysis-types [post]
func (h *AnalysisTypeHandler) Create(c *gin.Context) {
	var req service.CreateAnalysisTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	createdBy := ""
	if claims := claimsFromContext(c); claims != nil {
		createdBy = claims.UserID
	}

	at, err := h.types.Create(c.Request.Context(), createdBy, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, at)
}

// Update godoc
// @Summary Update analysis type
// @Tags AnalysisTypes
// @Accept json
// @Produce json
// @Param id path string true "Analysis type ID"
// @Param payload body service.UpdateAnalysisTypeRequest true "Analysis type payload"
// @Success 200 {object} response.Envelope
// @Router /analysis-types/{id} [put]
func (h *AnalysisTypeHandler) Update(c *gin.Context) {
	var req service.UpdateAnalysisTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	at, err := h.types.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, at, nil)
}

// Delete godoc
// @Summary Delete analysis type
// @Description Fails with 409 while documents still reference the type
// @Tags AnalysisTypes
// @Produce json
// @Param id path string true "Analysis type ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /analysis-types/{id} [delete]
func (h *AnalysisTypeHandler) Delete(c *gin.Context) {
	if err := h.types.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
