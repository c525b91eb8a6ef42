package models

import "time"

// TokenUsage is one append-only billing ledger entry.
type TokenUsage struct {
	ID             string    `db:"id" json:"id"`
	DocumentID     *string   `db:"document_id" json:"document_id,omitempty"`
	AnalysisTypeID string    `db:"analysis_type_id" json:"analysis_type_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	TokensUsed     int       `db:"tokens_used" json:"tokens_used"`
	Cost           float64   `db:"cost" json:"cost"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	// Joined display fields, populated by the stats query.
	UserFullName     string `db:"user_full_name" json:"user_full_name,omitempty"`
	UserEmail        string `db:"user_email" json:"user_email,omitempty"`
	AnalysisTypeName string `db:"analysis_type_name" json:"analysis_type_name,omitempty"`
}

// UserUsage aggregates ledger entries for one account.
type UserUsage struct {
	UserID        string  `json:"user_id"`
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	TokensUsed    int     `json:"tokens_used"`
	Cost          float64 `json:"cost"`
	DocumentCount int     `json:"document_count"`
}

// AnalysisTypeUsage aggregates ledger entries for one analysis type.
type AnalysisTypeUsage struct {
	AnalysisTypeID string  `json:"analysis_type_id"`
	Name           string  `json:"name"`
	TokensUsed     int     `json:"tokens_used"`
	Cost           float64 `json:"cost"`
	UsageCount     int     `json:"usage_count"`
}

// UsageStats is the token usage report for a date range.
type UsageStats struct {
	TotalTokens    int                 `json:"totalTokens"`
	TotalCost      float64             `json:"totalCost"`
	TotalDocuments int                 `json:"totalDocuments"`
	ByUser         []UserUsage         `json:"byUser"`
	ByAnalysisType []AnalysisTypeUsage `json:"byAnalysisType"`
	RecentUsage    []TokenUsage        `json:"recentUsage"`
}
