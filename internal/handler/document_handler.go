package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexla-dev/doc-analysis-api/internal/service"
	appErrors "github.com/nexla-dev/doc-analysis-api/pkg/errors"
	"github.com/nexla-dev/doc-analysis-api/pkg/response"
)

// DocumentHandler exposes document upload and retrieval endpoints.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload godoc
// @Summary Upload documents for analysis
// @Description Accepts one or more files under the "file" field plus an analysis_type_id form value. Files are processed sequentially; per-file results are returned.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param analysis_type_id formData string true "Analysis type ID"
// @Param file formData file true "Document file(s)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents/upload [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form"))
		return
	}

	headers := form.File["file"]
	files := make([]service.UploadFile, 0, len(headers))
	var closers []interface{ Close() error }
	defer func() {
		for _, closer := range closers {
			closer.Close() //nolint:errcheck
		}
	}()

	for _, header := range headers {
		content, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload: "+header.Filename))
			return
		}
		closers = append(closers, content)
		files = append(files, service.UploadFile{
			Name:    header.Filename,
			Size:    header.Size,
			Content: content,
		})
	}

	analysisTypeID := c.PostForm("analysis_type_id")
	outcomes, err := h.documents.Upload(c.Request.Context(), claims.UserID, analysisTypeID, files, nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, outcomes, nil)
}

// List godoc
// @Summary List documents
// @Description Admins see all documents; regular users only their own
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	docs, err := h.documents.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Get godoc
// @Summary Get document detail
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	doc, err := h.documents.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}
