package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexla-dev/doc-analysis-api/internal/models"
)

// AnalysisTypeRepository provides database access for analysis types.
type AnalysisTypeRepository struct {
	db *sqlx.DB
}

// NewAnalysisTypeRepository creates a new instance of AnalysisTypeRepository.
func NewAnalysisTypeRepository(db *sqlx.DB) *AnalysisTypeRepository {
	return &AnalysisTypeRepository{db: db}
}

// List returns analysis types ordered newest first, optionally only active ones.
func (r *AnalysisTypeRepository) List(ctx context.Context, onlyActive bool) ([]models.AnalysisType, error) {
	query := `SELECT id, name, description, ai_model, template, created_by, is_active, created_at, updated_at FROM analysis_types`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	var types []models.AnalysisType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list analysis types: %w", err)
	}
	return types, nil
}

// FindByID returns an analysis type by identifier.
func (r *AnalysisTypeRepository) FindByID(ctx context.Context, id string) (*models.AnalysisType, error) {
	const query = `SELECT id, name, description, ai_model, template, created_by, is_active, created_at, updated_at FROM analysis_types WHERE id = $1 LIMIT 1`
	var at models.AnalysisType
	if err := r.db.GetContext(ctx, &at, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find analysis type by id: %w", err)
	}
	return &at, nil
}

// Create inserts a new analysis type.
func (r *AnalysisTypeRepository) Create(ctx context.Context, at *models.AnalysisType) error {
	if at.ID == "" {
		at.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if at.CreatedAt.IsZero() {
		at.CreatedAt = now
	}
	at.UpdatedAt = now

	const query = `INSERT INTO analysis_types (id, name, description, ai_model, template, created_by, is_active, created_at, updated_at) VALUES (:id, :name, :description, :ai_model, :template, :created_by, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, at); err != nil {
		return fmt.Errorf("create analysis type: %w", err)
	}
	return nil
}

// Update persists mutable fields of an analysis type.
func (r *AnalysisTypeRepository) Update(ctx context.Context, at *models.AnalysisType) error {
	at.UpdatedAt = time.Now().UTC()
	const query = `UPDATE analysis_types SET name = :name, description = :description, ai_model = :ai_model, template = :template, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, at); err != nil {
		return fmt.Errorf("update analysis type: %w", err)
	}
	return nil
}

// Delete removes an analysis type. Returns ErrRestricted while documents
// still reference it (documents.analysis_type_id is ON DELETE RESTRICT).
func (r *AnalysisTypeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM analysis_types WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		if mapped := mapIntegrityError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("delete analysis type: %w", err)
	}
	return nil
}
