package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nexla-dev/doc-analysis-api/internal/models"
	"github.com/nexla-dev/doc-analysis-api/internal/webhook"
	appErrors "github.com/nexla-dev/doc-analysis-api/pkg/errors"
)

type documentRepository interface {
	List(ctx context.Context, userID string) ([]models.Document, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	MarkCompleted(ctx context.Context, id string, result json.RawMessage, completedAt time.Time) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
}

type analysisTypeFinder interface {
	FindByID(ctx context.Context, id string) (*models.AnalysisType, error)
}

type documentStorage interface {
	GenerateName(originalName string) string
	SaveStream(filename string, r io.Reader) (string, error)
}

type analyzer interface {
	Analyze(ctx context.Context, req webhook.Request) (*webhook.Result, error)
}

// UploadFile is one file from a multipart upload request.
type UploadFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// UploadOutcome reports the fate of one uploaded file. Either Document is set
// (the analysis completed) or Error explains why it did not.
type UploadOutcome struct {
	FileName string           `json:"file_name"`
	Status   string           `json:"status"`
	Document *models.Document `json:"document,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Stages reported through ProgressFunc while a file moves through the pipeline.
const (
	StagePrepared  = "prepared"
	StageSent      = "sent"
	StageProcessed = "processed"
)

// ProgressFunc receives per-file pipeline progress. percent covers the whole batch.
type ProgressFunc func(fileIndex int, fileName, stage string, percent int)

// UploadConfig bounds what the pipeline accepts.
type UploadConfig struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	BaseURL           string
}

// DocumentService drives the upload and analysis pipeline.
type DocumentService struct {
	repo     documentRepository
	types    analysisTypeFinder
	storage  documentStorage
	analyzer analyzer
	metrics  *MetricsService
	logger   *zap.Logger
	config   UploadConfig
}

// NewDocumentService constructs a DocumentService instance.
func NewDocumentService(repo documentRepository, types analysisTypeFinder, store documentStorage, analyzer analyzer, metrics *MetricsService, logger *zap.Logger, config UploadConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 10 << 20
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{"pdf", "doc", "docx", "txt", "jpg", "jpeg", "png"}
	}
	return &DocumentService{
		repo:     repo,
		types:    types,
		storage:  store,
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
		config:   config,
	}
}

// Upload runs the full pipeline for a batch of files: validate everything up
// front, then per file store it, record a processing document, dispatch the
// analysis and persist the terminal state. One file failing does not stop the
// rest of the batch; the batch itself is rejected before any side effects if
// any file is invalid.
func (s *DocumentService) Upload(ctx context.Context, userID, analysisTypeID string, files []UploadFile, progress ProgressFunc) ([]UploadOutcome, error) {
	if analysisTypeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "analysis_type_id is required")
	}
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no file uploaded")
	}
	if progress == nil {
		progress = func(int, string, string, int) {}
	}

	analysisType, err := s.types.FindByID(ctx, analysisTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analysis type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch analysis type")
	}

	for _, file := range files {
		if err := s.validateFile(file); err != nil {
			return nil, err
		}
	}

	outcomes := make([]UploadOutcome, 0, len(files))
	totalSteps := len(files) * 3
	for i, file := range files {
		percent := func(step int) int { return (i*3 + step) * 100 / totalSteps }

		doc, err := s.processFile(ctx, userID, analysisType, file, func(stage string, step int) {
			progress(i, file.Name, stage, percent(step))
		})
		outcome := UploadOutcome{FileName: file.Name}
		if err != nil {
			outcome.Status = string(models.StatusFailed)
			outcome.Error = err.Error()
			if doc != nil {
				outcome.Document = doc
			}
		} else {
			outcome.Status = string(doc.Status)
			outcome.Document = doc
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// processFile runs one file through storage, persistence and analysis. When a
// document row exists it is always driven to a terminal state before returning.
func (s *DocumentService) processFile(ctx context.Context, userID string, analysisType *models.AnalysisType, file UploadFile, report func(stage string, step int)) (*models.Document, error) {
	storedName := s.storage.GenerateName(file.Name)
	if _, err := s.storage.SaveStream(storedName, file.Content); err != nil {
		s.logger.Error("failed to store upload", zap.String("file_name", file.Name), zap.Error(err))
		return nil, fmt.Errorf("store %s: %w", file.Name, err)
	}

	doc := &models.Document{
		UserID:         userID,
		AnalysisTypeID: analysisType.ID,
		FileName:       file.Name,
		FileURL:        strings.TrimRight(s.config.BaseURL, "/") + "/uploads/" + storedName,
		Status:         models.StatusProcessing,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("record %s: %w", file.Name, err)
	}
	doc.AnalysisTypeName = analysisType.Name
	report(StagePrepared, 1)

	s.logger.Info("document dispatched for analysis",
		zap.String("document_id", doc.ID),
		zap.String("analysis_type_id", analysisType.ID),
		zap.String("ai_model", analysisType.AIModel))
	report(StageSent, 2)

	started := time.Now()
	result, err := s.analyzer.Analyze(ctx, webhook.Request{
		DocumentID: doc.ID,
		FileURL:    doc.FileURL,
		FileName:   doc.FileName,
		AIModel:    analysisType.AIModel,
		Template:   analysisType.Template,
	})
	elapsed := time.Since(started)
	if err != nil {
		s.metrics.ObserveDispatch("failure", elapsed)
		message := truncateError(err, 1000)
		if markErr := s.repo.MarkFailed(ctx, doc.ID, message); markErr != nil {
			s.logger.Error("failed to mark document failed", zap.String("document_id", doc.ID), zap.Error(markErr))
		}
		doc.Status = models.StatusFailed
		doc.ErrorMessage = &message
		report(StageProcessed, 3)
		return doc, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "analysis failed for "+file.Name)
	}
	s.metrics.ObserveDispatch("success", elapsed)

	payload, err := json.Marshal(result)
	if err != nil {
		return doc, fmt.Errorf("encode result for %s: %w", file.Name, err)
	}
	completedAt := time.Now().UTC()
	if err := s.repo.MarkCompleted(ctx, doc.ID, payload, completedAt); err != nil {
		return doc, fmt.Errorf("persist result for %s: %w", file.Name, err)
	}
	doc.Status = models.StatusCompleted
	doc.Result = payload
	doc.CompletedAt = &completedAt
	report(StageProcessed, 3)

	return doc, nil
}

// List returns the caller's documents; admins see everyone's.
func (s *DocumentService) List(ctx context.Context, claims *models.JWTClaims) ([]models.Document, error) {
	scope := claims.UserID
	if claims.Role == models.RoleAdmin {
		scope = ""
	}
	docs, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Get returns one document. Non-admin callers can only read their own.
func (s *DocumentService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch document")
	}
	if claims.Role != models.RoleAdmin && doc.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document belongs to another user")
	}
	return doc, nil
}

func (s *DocumentService) validateFile(file UploadFile) error {
	if file.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "file name is required")
	}
	if file.Size > s.config.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("%s exceeds the maximum file size of %d bytes", file.Name, s.config.MaxFileSizeBytes))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Name)), ".")
	for _, allowed := range s.config.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation,
		fmt.Sprintf("%s has an unsupported file type; allowed: %s", file.Name, strings.Join(s.config.AllowedExtensions, ", ")))
}

// truncateError caps the persisted message at limit bytes without splitting
// a multi-byte rune.
func truncateError(err error, limit int) string {
	message := err.Error()
	if len(message) <= limit {
		return message
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}
