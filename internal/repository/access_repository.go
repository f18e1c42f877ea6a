package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/orgportal-api/internal/models"
)

const accessColumns = `id, document_id, access_level, user_id, department, granted_by, created_at`

// AccessRepository handles explicit access grants.
type AccessRepository struct {
	db *sqlx.DB
}

// NewAccessRepository constructs the repository.
func NewAccessRepository(db *sqlx.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// ListByDocument returns every grant on one document.
func (r *AccessRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentAccess, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_access WHERE document_id = $1 ORDER BY created_at ASC`, accessColumns)
	var grants []models.DocumentAccess
	if err := r.db.SelectContext(ctx, &grants, query, documentID); err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	return grants, nil
}

// ListByDocuments loads grants for a whole result set in one query, keyed by
// document. Listing endpoints call this instead of one query per row.
func (r *AccessRepository) ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]models.DocumentAccess, error) {
	result := make(map[string][]models.DocumentAccess, len(documentIDs))
	if len(documentIDs) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM document_access WHERE document_id IN (?)`, accessColumns), documentIDs)
	if err != nil {
		return nil, fmt.Errorf("build access query: %w", err)
	}
	query = r.db.Rebind(query)
	var grants []models.DocumentAccess
	if err := r.db.SelectContext(ctx, &grants, query, args...); err != nil {
		return nil, fmt.Errorf("batch list access grants: %w", err)
	}
	for _, grant := range grants {
		result[grant.DocumentID] = append(result[grant.DocumentID], grant)
	}
	return result, nil
}

// Grant inserts one explicit access row.
func (r *AccessRepository) Grant(ctx context.Context, grant *models.DocumentAccess) error {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_access
	(id, document_id, access_level, user_id, department, granted_by, created_at)
	VALUES (:id, :document_id, :access_level, :user_id, :department, :granted_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("insert access grant: %w", err)
	}
	return nil
}
