package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexla-dev/doc-analysis-api/internal/service"
	appErrors "github.com/nexla-dev/doc-analysis-api/pkg/errors"
	"github.com/nexla-dev/doc-analysis-api/pkg/response"
)

// TokenUsageHandler exposes the billing ledger endpoints.
type TokenUsageHandler struct {
	usage *service.TokenUsageService
}

// NewTokenUsageHandler constructs TokenUsageHandler.
func NewTokenUsageHandler(usage *service.TokenUsageService) *TokenUsageHandler {
	return &TokenUsageHandler{usage: usage}
}

// Stats godoc
// @Summary Token usage report
// @Description Aggregated tokens, cost and document counts for a date range
// @Tags TokenUsage
// @Produce json
// @Param date_range query string false "One of 7d, 30d, 90d, all" default(all)
// @Success 200 {object} response.Envelope
// @Router /token-usage/stats [get]
func (h *TokenUsageHandler) Stats(c *gin.Context) {
	stats, err := h.usage.GetStats(c.Request.Context(), c.Query("date_range"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Create godoc
// @Summary Record token usage
// @Description Appends one immutable entry to the usage ledger
// @Tags TokenUsage
// @Accept json
// @Produce json
// @Param payload body service.CreateTokenUsageRequest true "Usage payload"
// @Success 201 {object} response.Envelope
// @Router /token-usage [post]
func (h *TokenUsageHandler) Create(c *gin.Context) {
	var req service.CreateTokenUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	usage, err := h.usage.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, usage)
}

// Export godoc
// @Summary Export token usage report
// @Description Download the per-user usage breakdown as CSV or PDF
// @Tags TokenUsage
// @Produce text/csv
// @Produce application/pdf
// @Param date_range query string false "One of 7d, 30d, 90d, all" default(all)
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /token-usage/export [get]
func (h *TokenUsageHandler) Export(c *gin.Context) {
	content, contentType, filename, err := h.usage.Export(c.Request.Context(), c.Query("date_range"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, content)
}
