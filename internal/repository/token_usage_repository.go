package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nexla-dev/doc-analysis-api/internal/models"
)

// TokenUsageRepository provides database access for the usage ledger.
type TokenUsageRepository struct {
	db *sqlx.DB
}

// NewTokenUsageRepository creates a new instance of TokenUsageRepository.
func NewTokenUsageRepository(db *sqlx.DB) *TokenUsageRepository {
	return &TokenUsageRepository{db: db}
}

// Create appends a ledger entry. Entries are immutable once written.
func (r *TokenUsageRepository) Create(ctx context.Context, usage *models.TokenUsage) error {
	if usage.ID == "" {
		usage.ID = uuid.NewString()
	}
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO token_usage (id, document_id, analysis_type_id, user_id, tokens_used, cost, created_at) VALUES (:id, :document_id, :analysis_type_id, :user_id, :tokens_used, :cost, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, usage); err != nil {
		if mapped := mapIntegrityError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create token usage: %w", err)
	}
	return nil
}

// ListSince returns ledger entries created at or after the given time, newest
// first, joined with their owning user and analysis type. A nil since returns
// the full ledger.
func (r *TokenUsageRepository) ListSince(ctx context.Context, since *time.Time) ([]models.TokenUsage, error) {
	query := `SELECT tu.id, tu.document_id, tu.analysis_type_id, tu.user_id, tu.tokens_used, tu.cost, tu.created_at, u.full_name AS user_full_name, u.email AS user_email, at.name AS analysis_type_name FROM token_usage tu JOIN users u ON u.id = tu.user_id JOIN analysis_types at ON at.id = tu.analysis_type_id`
	var args []interface{}
	if since != nil {
		query += ` WHERE tu.created_at >= $1`
		args = append(args, *since)
	}
	query += ` ORDER BY tu.created_at DESC`

	var rows []models.TokenUsage
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list token usage: %w", err)
	}
	return rows, nil
}
