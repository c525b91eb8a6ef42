package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexla-dev/doc-analysis-api/internal/models"
)

// DocumentRepository provides database access for documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `d.id, d.user_id, d.analysis_type_id, d.file_name, d.file_url, d.status, d.result, d.error_message, d.created_at, d.completed_at, at.name AS analysis_type_name, u.full_name AS user_full_name`

// List returns documents ordered newest first. An empty userID lists all documents.
func (r *DocumentRepository) List(ctx context.Context, userID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d JOIN analysis_types at ON at.id = d.analysis_type_id JOIN users u ON u.id = d.user_id`
	var args []interface{}
	if userID != "" {
		query += ` WHERE d.user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY d.created_at DESC`

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// FindByID returns a document by identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d JOIN analysis_types at ON at.id = d.analysis_type_id JOIN users u ON u.id = d.user_id WHERE d.id = $1 LIMIT 1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return &doc, nil
}

// Create inserts a new document in processing state.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = models.StatusProcessing
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO documents (id, user_id, analysis_type_id, file_name, file_url, status, created_at) VALUES (:id, :user_id, :analysis_type_id, :file_name, :file_url, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// MarkCompleted transitions a processing document to completed with its result.
// Documents already in a terminal state are left untouched.
func (r *DocumentRepository) MarkCompleted(ctx context.Context, id string, result json.RawMessage, completedAt time.Time) error {
	const query = `UPDATE documents SET status = $2, result = $3, completed_at = $4 WHERE id = $1 AND status = $5`
	if _, err := r.db.ExecContext(ctx, query, id, models.StatusCompleted, []byte(result), completedAt, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark document completed: %w", err)
	}
	return nil
}

// MarkFailed transitions a processing document to failed with the captured error.
func (r *DocumentRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	const query = `UPDATE documents SET status = $2, error_message = $3 WHERE id = $1 AND status = $4`
	if _, err := r.db.ExecContext(ctx, query, id, models.StatusFailed, errorMessage, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark document failed: %w", err)
	}
	return nil
}
