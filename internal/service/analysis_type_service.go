package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nexla-dev/doc-analysis-api/internal/models"
	"github.com/nexla-dev/doc-analysis-api/internal/repository"
	appErrors "github.com/nexla-dev/doc-analysis-api/pkg/errors"
)

type analysisTypeRepository interface {
	List(ctx context.Context, onlyActive bool) ([]models.AnalysisType, error)
	FindByID(ctx context.Context, id string) (*models.AnalysisType, error)
	Create(ctx context.Context, at *models.AnalysisType) error
	Update(ctx context.Context, at *models.AnalysisType) error
	Delete(ctx context.Context, id string) error
}

// CreateAnalysisTypeRequest is the payload for registering an analysis type.
type CreateAnalysisTypeRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description"`
	AIModel     string `json:"ai_model" validate:"required,min=2,max=255"`
	Template    string `json:"template" validate:"required"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateAnalysisTypeRequest carries mutable fields; absent fields keep their value.
type UpdateAnalysisTypeRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description"`
	AIModel     *string `json:"ai_model" validate:"omitempty,min=2,max=255"`
	Template    *string `json:"template" validate:"omitempty,min=1"`
	IsActive    *bool   `json:"is_active"`
}

// AnalysisTypeService provides analysis type management use cases.
type AnalysisTypeService struct {
	repo      analysisTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnalysisTypeService constructs an AnalysisTypeService instance.
func NewAnalysisTypeService(repo analysisTypeRepository, validate *validator.Validate, logger *zap.Logger) *AnalysisTypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AnalysisTypeService{repo: repo, validator: validate, logger: logger}
}

// List returns analysis types. Non-admin callers only see active ones.
func (s *AnalysisTypeService) List(ctx context.Context, includeInactive bool) ([]models.AnalysisType, error) {
	types, err := s.repo.List(ctx, !includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list analysis types")
	}
	return types, nil
}

// Get returns a single analysis type by id.
func (s *AnalysisTypeService) Get(ctx context.Context, id string) (*models.AnalysisType, error) {
	at, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "analysis type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch analysis type")
	}
	return at, nil
}

// Create registers a new analysis type owned by the given admin.
func (s *AnalysisTypeService) Create(ctx context.Context, createdBy string, req CreateAnalysisTypeRequest) (*models.AnalysisType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis type payload")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	at := &models.AnalysisType{
		Name:        req.Name,
		Description: req.Description,
		AIModel:     req.AIModel,
		Template:    req.Template,
		IsActive:    isActive,
	}
	if createdBy != "" {
		at.CreatedBy = &createdBy
	}

	if err := s.repo.Create(ctx, at); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create analysis type")
	}

	s.logger.Info("analysis type created", zap.String("analysis_type_id", at.ID), zap.String("name", at.Name))
	return at, nil
}

// Update merges the provided fields into an existing analysis type.
func (s *AnalysisTypeService) Update(ctx context.Context, id string, req UpdateAnalysisTypeRequest) (*models.AnalysisType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis type payload")
	}

	at, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		at.Name = *req.Name
	}
	if req.Description != nil {
		at.Description = *req.Description
	}
	if req.AIModel != nil {
		at.AIModel = *req.AIModel
	}
	if req.Template != nil {
		at.Template = *req.Template
	}
	if req.IsActive != nil {
		at.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, at); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update analysis type")
	}
	return at, nil
}

// Delete removes an analysis type. Types still referenced by documents cannot
// be deleted; deactivate them instead.
func (s *AnalysisTypeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRestricted) {
			return appErrors.Clone(appErrors.ErrConflict, "analysis type is referenced by documents; deactivate it instead")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete analysis type")
	}
	s.logger.Info("analysis type deleted", zap.String("analysis_type_id", id))
	return nil
}
