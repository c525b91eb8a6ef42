package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/nexla-dev/doc-analysis-api/internal/middleware"
	"github.com/nexla-dev/doc-analysis-api/internal/models"
	"github.com/nexla-dev/doc-analysis-api/internal/service"
	"github.com/nexla-dev/doc-analysis-api/internal/webhook"
	"github.com/nexla-dev/doc-analysis-api/pkg/storage"
)

type docRepoStub struct {
	docs map[string]*models.Document
}

func newDocRepoStub() *docRepoStub {
	return &docRepoStub{docs: make(map[string]*models.Document)}
}

func (s *docRepoStub) List(ctx context.Context, userID string) ([]models.Document, error) {
	var out []models.Document
	for _, d := range s.docs {
		if userID != "" && d.UserID != userID {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *docRepoStub) FindByID(ctx context.Context, id string) (*models.Document, error) {
	d, ok := s.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (s *docRepoStub) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = "doc-1"
	}
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *docRepoStub) MarkCompleted(ctx context.Context, id string, result json.RawMessage, completedAt time.Time) error {
	if d, ok := s.docs[id]; ok {
		d.Status = models.StatusCompleted
		d.Result = result
		d.CompletedAt = &completedAt
	}
	return nil
}

func (s *docRepoStub) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	if d, ok := s.docs[id]; ok {
		d.Status = models.StatusFailed
		d.ErrorMessage = &errorMessage
	}
	return nil
}

type typeFinderStub struct {
	at *models.AnalysisType
}

func (s *typeFinderStub) FindByID(ctx context.Context, id string) (*models.AnalysisType, error) {
	if s.at == nil || s.at.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.at, nil
}

type analyzerStub struct {
	requests []webhook.Request
}

func (s *analyzerStub) Analyze(ctx context.Context, req webhook.Request) (*webhook.Result, error) {
	s.requests = append(s.requests, req)
	return &webhook.Result{Output: "analysis of " + req.FileName}, nil
}

func buildDocumentRouter(t *testing.T, repo *docRepoStub, az *analyzerStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	finder := &typeFinderStub{at: &models.AnalysisType{ID: "type-1", Name: "Contract Review", AIModel: "gpt-4o", Template: "review", IsActive: true}}
	svc := service.NewDocumentService(repo, finder, store, az, nil, nil, service.UploadConfig{
		MaxFileSizeBytes:  1 << 20,
		AllowedExtensions: []string{"pdf", "txt"},
		BaseURL:           "http://localhost:8080",
	})
	handler := NewDocumentHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: c.GetHeader("X-Test-User"),
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	secured := router.Group("")
	secured.POST("/documents/upload", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleUser)), handler.Upload)
	secured.GET("/documents", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleUser)), handler.List)
	secured.GET("/documents/:id", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleUser)), handler.Get)

	return router
}

func multipartUpload(t *testing.T, analysisTypeID string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if analysisTypeID != "" {
		require.NoError(t, writer.WriteField("analysis_type_id", analysisTypeID))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDocumentUploadEndpoint(t *testing.T) {
	repo := newDocRepoStub()
	az := &analyzerStub{}
	router := buildDocumentRouter(t, repo, az)

	body, contentType := multipartUpload(t, "type-1", map[string]string{"contract.pdf": "file-bytes"})
	req, _ := http.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-Role", string(models.RoleUser))
	req.Header.Set("X-Test-User", "user-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"completed"`)
	assert.Contains(t, resp.Body.String(), "analysis of contract.pdf")
	require.Len(t, az.requests, 1)
	assert.Equal(t, "gpt-4o", az.requests[0].AIModel)
}

func TestDocumentUploadRequiresAuth(t *testing.T) {
	router := buildDocumentRouter(t, newDocRepoStub(), &analyzerStub{})

	body, contentType := multipartUpload(t, "type-1", map[string]string{"contract.pdf": "x"})
	req, _ := http.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp := performRequest(router, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestDocumentUploadRejectsBadExtension(t *testing.T) {
	repo := newDocRepoStub()
	router := buildDocumentRouter(t, repo, &analyzerStub{})

	body, contentType := multipartUpload(t, "type-1", map[string]string{"virus.exe": "x"})
	req, _ := http.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-Role", string(models.RoleUser))
	req.Header.Set("X-Test-User", "user-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "unsupported file type")
	assert.Empty(t, repo.docs)
}

func TestDocumentUploadRequiresAnalysisTypeField(t *testing.T) {
	router := buildDocumentRouter(t, newDocRepoStub(), &analyzerStub{})

	body, contentType := multipartUpload(t, "", map[string]string{"contract.pdf": "x"})
	req, _ := http.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Test-Role", string(models.RoleUser))
	req.Header.Set("X-Test-User", "user-1")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDocumentListScopedByRole(t *testing.T) {
	repo := newDocRepoStub()
	repo.docs["d1"] = &models.Document{ID: "d1", UserID: "user-1", FileName: "a.pdf"}
	repo.docs["d2"] = &models.Document{ID: "d2", UserID: "user-2", FileName: "b.pdf"}
	router := buildDocumentRouter(t, repo, &analyzerStub{})

	req, _ := http.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("X-Test-Role", string(models.RoleUser))
	req.Header.Set("X-Test-User", "user-1")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "a.pdf")
	assert.NotContains(t, resp.Body.String(), "b.pdf")

	req, _ = http.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	req.Header.Set("X-Test-User", "admin-1")
	resp = performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "a.pdf")
	assert.Contains(t, resp.Body.String(), "b.pdf")
}

func TestDocumentGetForbiddenForOtherUser(t *testing.T) {
	repo := newDocRepoStub()
	repo.docs["d1"] = &models.Document{ID: "d1", UserID: "user-1", FileName: "a.pdf"}
	router := buildDocumentRouter(t, repo, &analyzerStub{})

	req, _ := http.NewRequest(http.MethodGet, "/documents/d1", nil)
	req.Header.Set("X-Test-Role", string(models.RoleUser))
	req.Header.Set("X-Test-User", "user-2")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}
