package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexla-dev/doc-analysis-api/internal/models"
)

func documentRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "analysis_type_id", "file_name", "file_url", "status",
		"result", "error_message", "created_at", "completed_at",
		"analysis_type_name", "user_full_name",
	}).AddRow("d1", "u1", "t1", "report.pdf", "http://localhost:8080/uploads/x.pdf",
		string(models.StatusCompleted), []byte(`{"output":"ok"}`), nil, now, now,
		"Contract Review", "Ana Silva")
}

func TestDocumentListAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery("FROM documents d JOIN analysis_types at ON .+ ORDER BY d.created_at DESC").
		WillReturnRows(documentRows(time.Now()))

	docs, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Contract Review", docs[0].AnalysisTypeName)
	assert.Equal(t, "Ana Silva", docs[0].UserFullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentListScopedToUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE d.user_id = $1")).
		WithArgs("u1").
		WillReturnRows(documentRows(time.Now()))

	docs, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentCreateDefaultsProcessing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.Document{UserID: "u1", AnalysisTypeID: "t1", FileName: "a.pdf", FileURL: "http://localhost/uploads/a.pdf"}
	require.NoError(t, repo.Create(context.Background(), doc))
	assert.Equal(t, models.StatusProcessing, doc.Status)
	assert.NotEmpty(t, doc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentMarkCompletedGuardsStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	completedAt := time.Now().UTC()
	result := json.RawMessage(`{"output":"done"}`)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $2, result = $3, completed_at = $4 WHERE id = $1 AND status = $5")).
		WithArgs("d1", string(models.StatusCompleted), []byte(result), completedAt, string(models.StatusProcessing)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkCompleted(context.Background(), "d1", result, completedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentMarkFailedGuardsStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $2, error_message = $3 WHERE id = $1 AND status = $4")).
		WithArgs("d1", string(models.StatusFailed), "webhook timed out", string(models.StatusProcessing)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), "d1", "webhook timed out"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
