package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/nexla-dev/doc-analysis-api/api/swagger"
	"github.com/nexla-dev/doc-analysis-api/internal/handler"
	internalmiddleware "github.com/nexla-dev/doc-analysis-api/internal/middleware"
	"github.com/nexla-dev/doc-analysis-api/internal/models"
	"github.com/nexla-dev/doc-analysis-api/internal/repository"
	"github.com/nexla-dev/doc-analysis-api/internal/service"
	"github.com/nexla-dev/doc-analysis-api/internal/webhook"
	"github.com/nexla-dev/doc-analysis-api/pkg/cache"
	"github.com/nexla-dev/doc-analysis-api/pkg/config"
	"github.com/nexla-dev/doc-analysis-api/pkg/database"
	"github.com/nexla-dev/doc-analysis-api/pkg/logger"
	corsmiddleware "github.com/nexla-dev/doc-analysis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nexla-dev/doc-analysis-api/pkg/middleware/requestid"
	"github.com/nexla-dev/doc-analysis-api/pkg/storage"
)

// @title Document Analysis API
// @version 1.0.0
// @description REST backend for AI-assisted document analysis
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Reports fall back to recomputing from the database.
		logr.Warn("redis unavailable, stats caching disabled", zap.Error(err))
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("failed to prepare upload storage", zap.Error(err))
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	analysisTypeRepo := repository.NewAnalysisTypeRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	usageRepo := repository.NewTokenUsageRepository(db)

	analysisClient := webhook.New(cfg.Analysis.WebhookURL, cfg.Analysis.RequestTimeout, cfg.Analysis.RetryTransient, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	analysisTypeService := service.NewAnalysisTypeService(analysisTypeRepo, validate, logr)
	documentService := service.NewDocumentService(documentRepo, analysisTypeRepo, store, analysisClient, metricsService, logr, service.UploadConfig{
		MaxFileSizeBytes:  cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
		BaseURL:           cfg.BaseURL,
	})
	usageService := service.NewTokenUsageService(usageRepo, redisClient, validate, metricsService, logr, cfg.Usage.StatsCacheTTL)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	analysisTypeHandler := handler.NewAnalysisTypeHandler(analysisTypeService)
	documentHandler := handler.NewDocumentHandler(documentService)
	usageHandler := handler.NewTokenUsageHandler(usageService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static("/uploads", store.BaseDir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authService))

	secured.GET("/auth/me", authHandler.Me)

	anyRole := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleUser)
	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin)

	secured.GET("/analysis-types", anyRole, analysisTypeHandler.List)
	secured.GET("/analysis-types/:id", anyRole, analysisTypeHandler.Get)
	secured.POST("/analysis-types", adminOnly, analysisTypeHandler.Create)
	secured.PUT("/analysis-types/:id", adminOnly, analysisTypeHandler.Update)
	secured.DELETE("/analysis-types/:id", adminOnly, analysisTypeHandler.Delete)

	secured.POST("/documents/upload", anyRole, documentHandler.Upload)
	secured.GET("/documents", anyRole, documentHandler.List)
	secured.GET("/documents/:id", anyRole, documentHandler.Get)

	secured.GET("/users", adminOnly, userHandler.List)
	secured.POST("/users", adminOnly, userHandler.Create)
	secured.GET("/users/:id", adminOnly, userHandler.Get)
	secured.PUT("/users/:id", adminOnly, userHandler.Update)
	secured.PUT("/users/:id/reset-password", adminOnly, userHandler.ResetPassword)
	secured.DELETE("/users/:id", adminOnly, userHandler.Delete)

	secured.GET("/token-usage/stats", adminOnly, usageHandler.Stats)
	secured.GET("/token-usage/export", adminOnly, usageHandler.Export)
	secured.POST("/token-usage", adminOnly, usageHandler.Create)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
