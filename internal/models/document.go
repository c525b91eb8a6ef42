package models

import (
	"encoding/json"
	"time"
)

// DocumentStatus tracks the lifecycle of an uploaded document.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Document is an uploaded file bound to an analysis type.
// Status moves from processing to exactly one of completed or failed.
type Document struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"user_id"`
	AnalysisTypeID string          `db:"analysis_type_id" json:"analysis_type_id"`
	FileName       string          `db:"file_name" json:"file_name"`
	FileURL        string          `db:"file_url" json:"file_url"`
	Status         DocumentStatus  `db:"status" json:"status"`
	Result         json.RawMessage `db:"result" json:"result,omitempty"`
	ErrorMessage   *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at,omitempty"`

	// Joined display fields, populated by list/detail queries.
	AnalysisTypeName string `db:"analysis_type_name" json:"analysis_type_name,omitempty"`
	UserFullName     string `db:"user_full_name" json:"user_full_name,omitempty"`
}
