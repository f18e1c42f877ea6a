package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/orgportal-api/internal/models"
)

// TagRepository reads free-form document labels. Writes happen inside the
// upload transaction owned by DocumentRepository.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository constructs the repository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// ListByDocuments loads tags for a whole result set in one query, keyed by
// document.
func (r *TagRepository) ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(documentIDs))
	if len(documentIDs) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT id, document_id, tag FROM document_tags WHERE document_id IN (?)`, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("build tag query: %w", err)
	}
	query = r.db.Rebind(query)
	var tags []models.DocumentTag
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("batch list tags: %w", err)
	}
	for _, tag := range tags {
		result[tag.DocumentID] = append(result[tag.DocumentID], tag.Tag)
	}
	return result, nil
}
