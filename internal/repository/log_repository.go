package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/orgportal-api/internal/models"
)

// LogRepository reads and appends the document audit trail. Most writes
// happen inside the owning operation's transaction; Create exists for
// actions with no other rows to change.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository constructs the repository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Create appends one audit row.
func (r *LogRepository) Create(ctx context.Context, entry *models.DocumentLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_logs
	(id, user_id, document_id, document_version_id, action, details, created_at)
	VALUES (:id, :user_id, :document_id, :document_version_id, :action, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert document log: %w", err)
	}
	return nil
}

// ListByDocument returns the trail most-recent first with actor names.
func (r *LogRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentLogDetail, error) {
	const query = `SELECT l.id, l.user_id, l.document_id, l.document_version_id, l.action, l.details, l.created_at,
	e.full_name AS actor_name
FROM document_logs l
JOIN employees e ON e.id = l.user_id
WHERE l.document_id = $1
ORDER BY l.created_at DESC`
	var entries []models.DocumentLogDetail
	if err := r.db.SelectContext(ctx, &entries, query, documentID); err != nil {
		return nil, fmt.Errorf("list document logs: %w", err)
	}
	return entries, nil
}
