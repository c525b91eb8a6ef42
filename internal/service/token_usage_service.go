package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nexla-dev/doc-analysis-api/internal/models"
	"github.com/nexla-dev/doc-analysis-api/internal/repository"
	appErrors "github.com/nexla-dev/doc-analysis-api/pkg/errors"
	"github.com/nexla-dev/doc-analysis-api/pkg/export"
)

type tokenUsageRepository interface {
	Create(ctx context.Context, usage *models.TokenUsage) error
	ListSince(ctx context.Context, since *time.Time) ([]models.TokenUsage, error)
}

// CreateTokenUsageRequest records one billing ledger entry.
type CreateTokenUsageRequest struct {
	DocumentID     *string `json:"document_id"`
	AnalysisTypeID string  `json:"analysis_type_id" validate:"required,uuid4"`
	UserID         string  `json:"user_id" validate:"required,uuid4"`
	TokensUsed     int     `json:"tokens_used" validate:"gte=0"`
	Cost           float64 `json:"cost" validate:"gte=0"`
}

// Reporting ranges accepted by GetStats and Export.
const (
	RangeWeek    = "7d"
	RangeMonth   = "30d"
	RangeQuarter = "90d"
	RangeAll     = "all"
)

const recentUsageLimit = 20

// TokenUsageService aggregates the usage ledger into billing reports.
type TokenUsageService struct {
	repo      tokenUsageRepository
	cache     *redis.Client
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewTokenUsageService constructs a TokenUsageService. cache may be nil, in
// which case every stats request recomputes from the database.
func NewTokenUsageService(repo tokenUsageRepository, cache *redis.Client, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *TokenUsageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &TokenUsageService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// Create appends a ledger entry and invalidates cached reports.
func (s *TokenUsageService) Create(ctx context.Context, req CreateTokenUsageRequest) (*models.TokenUsage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid usage payload")
	}

	usage := &models.TokenUsage{
		DocumentID:     req.DocumentID,
		AnalysisTypeID: req.AnalysisTypeID,
		UserID:         req.UserID,
		TokensUsed:     req.TokensUsed,
		Cost:           req.Cost,
	}
	if err := s.repo.Create(ctx, usage); err != nil {
		if errors.Is(err, repository.ErrRestricted) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown user, document or analysis type")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record usage")
	}

	s.metrics.AddTokensRecorded(usage.TokensUsed)
	s.invalidateStats(ctx)

	return usage, nil
}

// GetStats computes the usage report for a range, serving from cache when warm.
// An empty range means all time.
func (s *TokenUsageService) GetStats(ctx context.Context, rangeKey string) (*models.UsageStats, error) {
	rangeKey, since, err := s.resolveRange(rangeKey)
	if err != nil {
		return nil, err
	}

	if cached := s.cachedStats(ctx, rangeKey); cached != nil {
		return cached, nil
	}

	rows, err := s.repo.ListSince(ctx, since)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load usage ledger")
	}

	stats := reduceStats(rows)
	s.storeStats(ctx, rangeKey, stats)
	return stats, nil
}

// Export renders the per-user usage breakdown for a range as CSV or PDF.
// It returns the file bytes, the content type and a suggested filename.
func (s *TokenUsageService) Export(ctx context.Context, rangeKey, format string) ([]byte, string, string, error) {
	stats, err := s.GetStats(ctx, rangeKey)
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.Dataset{
		Headers: []string{"User", "Email", "Tokens Used", "Cost", "Documents"},
	}
	for _, row := range stats.ByUser {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"User":        row.FullName,
			"Email":       row.Email,
			"Tokens Used": strconv.Itoa(row.TokensUsed),
			"Cost":        fmt.Sprintf("%.4f", row.Cost),
			"Documents":   strconv.Itoa(row.DocumentCount),
		})
	}

	stamp := s.now().UTC().Format("20060102")
	switch format {
	case "", "csv":
		content, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return content, "text/csv", fmt.Sprintf("token-usage-%s.csv", stamp), nil
	case "pdf":
		content, err := export.NewPDFExporter().Render(dataset, "Token Usage Report")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return content, "application/pdf", fmt.Sprintf("token-usage-%s.pdf", stamp), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *TokenUsageService) resolveRange(rangeKey string) (string, *time.Time, error) {
	if rangeKey == "" {
		rangeKey = RangeAll
	}
	now := s.now().UTC()
	switch rangeKey {
	case RangeWeek:
		since := now.AddDate(0, 0, -7)
		return rangeKey, &since, nil
	case RangeMonth:
		since := now.AddDate(0, 0, -30)
		return rangeKey, &since, nil
	case RangeQuarter:
		since := now.AddDate(0, 0, -90)
		return rangeKey, &since, nil
	case RangeAll:
		return rangeKey, nil, nil
	default:
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "range must be one of 7d, 30d, 90d, all")
	}
}

func statsCacheKey(rangeKey string) string {
	return "usage:stats:" + rangeKey
}

func (s *TokenUsageService) cachedStats(ctx context.Context, rangeKey string) *models.UsageStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey(rangeKey)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats models.UsageStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("stats cache entry corrupt", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *TokenUsageService) storeStats(ctx context.Context, rangeKey string, stats *models.UsageStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey(rangeKey), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
}

func (s *TokenUsageService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{
		statsCacheKey(RangeWeek),
		statsCacheKey(RangeMonth),
		statsCacheKey(RangeQuarter),
		statsCacheKey(RangeAll),
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

// reduceStats collapses ledger rows (newest first) into the report shape.
// Breakdown slices are ordered by tokens used descending; ties keep first-seen
// order so repeated reports over the same ledger are stable.
func reduceStats(rows []models.TokenUsage) *models.UsageStats {
	stats := &models.UsageStats{
		ByUser:         []models.UserUsage{},
		ByAnalysisType: []models.AnalysisTypeUsage{},
		RecentUsage:    []models.TokenUsage{},
	}

	userIndex := make(map[string]int)
	typeIndex := make(map[string]int)

	for _, row := range rows {
		stats.TotalTokens += row.TokensUsed
		stats.TotalCost += row.Cost

		idx, ok := userIndex[row.UserID]
		if !ok {
			idx = len(stats.ByUser)
			userIndex[row.UserID] = idx
			stats.ByUser = append(stats.ByUser, models.UserUsage{
				UserID:   row.UserID,
				FullName: row.UserFullName,
				Email:    row.UserEmail,
			})
		}
		stats.ByUser[idx].TokensUsed += row.TokensUsed
		stats.ByUser[idx].Cost += row.Cost
		stats.ByUser[idx].DocumentCount++

		idx, ok = typeIndex[row.AnalysisTypeID]
		if !ok {
			idx = len(stats.ByAnalysisType)
			typeIndex[row.AnalysisTypeID] = idx
			stats.ByAnalysisType = append(stats.ByAnalysisType, models.AnalysisTypeUsage{
				AnalysisTypeID: row.AnalysisTypeID,
				Name:           row.AnalysisTypeName,
			})
		}
		stats.ByAnalysisType[idx].TokensUsed += row.TokensUsed
		stats.ByAnalysisType[idx].Cost += row.Cost
		stats.ByAnalysisType[idx].UsageCount++
	}

	// Event count, not distinct documents: entries without a document
	// reference still bill, and reprocessing a document bills again.
	stats.TotalDocuments = len(rows)

	sort.SliceStable(stats.ByUser, func(i, j int) bool {
		return stats.ByUser[i].TokensUsed > stats.ByUser[j].TokensUsed
	})
	sort.SliceStable(stats.ByAnalysisType, func(i, j int) bool {
		return stats.ByAnalysisType[i].TokensUsed > stats.ByAnalysisType[j].TokensUsed
	})

	limit := recentUsageLimit
	if len(rows) < limit {
		limit = len(rows)
	}
	stats.RecentUsage = append(stats.RecentUsage, rows[:limit]...)

	return stats
}
