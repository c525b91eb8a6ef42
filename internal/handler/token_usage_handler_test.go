package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/nexla-dev/doc-analysis-api/internal/middleware"
	"github.com/nexla-dev/doc-analysis-api/internal/models"
	"github.com/nexla-dev/doc-analysis-api/internal/service"
)

type usageRepoStub struct {
	rows    []models.TokenUsage
	created []*models.TokenUsage
}

func (s *usageRepoStub) Create(ctx context.Context, usage *models.TokenUsage) error {
	s.created = append(s.created, usage)
	return nil
}

func (s *usageRepoStub) ListSince(ctx context.Context, since *time.Time) ([]models.TokenUsage, error) {
	return s.rows, nil
}

func buildUsageRouter(repo *usageRepoStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewTokenUsageService(repo, nil, nil, nil, nil, time.Minute)
	handler := NewTokenUsageHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "test-user", Role: models.UserRole(role)})
		}
		c.Next()
	})

	secured := router.Group("")
	secured.GET("/token-usage/stats", internalmiddleware.RBAC(string(models.RoleAdmin)), handler.Stats)
	secured.POST("/token-usage", internalmiddleware.RBAC(string(models.RoleAdmin)), handler.Create)
	secured.GET("/token-usage/export", internalmiddleware.RBAC(string(models.RoleAdmin)), handler.Export)

	return router
}

func ledgerRow(user string, tokens int) models.TokenUsage {
	return models.TokenUsage{
		UserID:           user,
		UserFullName:     "Ana Silva",
		UserEmail:        user + "@example.com",
		AnalysisTypeID:   "t1",
		AnalysisTypeName: "Contract Review",
		TokensUsed:       tokens,
		Cost:             float64(tokens) / 10000,
		CreatedAt:        time.Now().UTC(),
	}
}

func TestTokenUsageStatsEndpoint(t *testing.T) {
	repo := &usageRepoStub{rows: []models.TokenUsage{ledgerRow("u1", 1200), ledgerRow("u1", 300)}}
	router := buildUsageRouter(repo)

	req, _ := http.NewRequest(http.MethodGet, "/token-usage/stats?date_range=30d", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"totalTokens":1500`)
	assert.Contains(t, resp.Body.String(), `"byUser"`)
	assert.Contains(t, resp.Body.String(), `"recentUsage"`)
}

func TestTokenUsageStatsForbiddenForUsers(t *testing.T) {
	router := buildUsageRouter(&usageRepoStub{})

	req, _ := http.NewRequest(http.MethodGet, "/token-usage/stats", nil)
	req.Header.Set("X-Test-Role", string(models.RoleUser))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestTokenUsageStatsRejectsBadRange(t *testing.T) {
	router := buildUsageRouter(&usageRepoStub{})

	req, _ := http.NewRequest(http.MethodGet, "/token-usage/stats?date_range=14d", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTokenUsageCreateEndpoint(t *testing.T) {
	repo := &usageRepoStub{}
	router := buildUsageRouter(repo)

	payload := `{"analysis_type_id":"4b8f7b3e-26b7-45d6-9c66-1f8dfb3be001","user_id":"9a1f13a7-32dc-45e1-a7b4-44a7caa0f002","tokens_used":1500,"cost":0.15}`
	req, _ := http.NewRequest(http.MethodPost, "/token-usage", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, 1500, repo.created[0].TokensUsed)
}

func TestTokenUsageExportEndpoint(t *testing.T) {
	repo := &usageRepoStub{rows: []models.TokenUsage{ledgerRow("u1", 1200)}}
	router := buildUsageRouter(repo)

	req, _ := http.NewRequest(http.MethodGet, "/token-usage/export?format=csv", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/csv", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "token-usage-")
	assert.Contains(t, resp.Body.String(), "Ana Silva")
}
