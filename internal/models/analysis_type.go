package models

import "time"

// AnalysisType pairs an AI model with a prompt template selectable at upload time.
type AnalysisType struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	AIModel     string    `db:"ai_model" json:"ai_model"`
	Template    string    `db:"template" json:"template"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
