package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/orgportal-api/internal/models"
)

// CommentRepository handles the append-only comment ledger.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// GetByID retrieves one comment row.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.DocumentComment, error) {
	const query = `SELECT id, document_id, user_id, comment, created_at FROM document_comments WHERE id = $1`
	var comment models.DocumentComment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByDocument returns comments most-recent first with author names.
func (r *CommentRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentCommentDetail, error) {
	const query = `SELECT c.id, c.document_id, c.user_id, c.comment, c.created_at,
	e.full_name AS author_name
FROM document_comments c
JOIN employees e ON e.id = c.user_id
WHERE c.document_id = $1
ORDER BY c.created_at DESC`
	var comments []models.DocumentCommentDetail
	if err := r.db.SelectContext(ctx, &comments, query, documentID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Create inserts a comment and its audit row in one transaction.
func (r *CommentRepository) Create(ctx context.Context, comment *models.DocumentComment) (err error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertComment = `INSERT INTO document_comments (id, document_id, user_id, comment, created_at)
	VALUES (:id, :document_id, :user_id, :comment, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertComment, comment); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	const insertLog = `INSERT INTO document_logs
	(id, user_id, document_id, document_version_id, action, details, created_at)
	VALUES ($1, $2, $3, NULL, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insertLog, uuid.NewString(), comment.UserID, comment.DocumentID, models.LogActionAddComment, "added a comment", comment.CreatedAt); err != nil {
		return fmt.Errorf("insert comment log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit comment: %w", err)
	}
	return nil
}

// Delete removes a comment and writes the moderation audit row in one
// transaction.
func (r *CommentRepository) Delete(ctx context.Context, comment *models.DocumentComment, actorID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comment delete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM document_comments WHERE id = $1`, comment.ID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check comment delete rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	const insertLog = `INSERT INTO document_logs
	(id, user_id, document_id, document_version_id, action, details, created_at)
	VALUES ($1, $2, $3, NULL, $4, $5, $6)`
	details := fmt.Sprintf("deleted comment by %s", comment.UserID)
	if _, err = tx.ExecContext(ctx, insertLog, uuid.NewString(), actorID, comment.DocumentID, models.LogActionDeleteComment, details, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert comment delete log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit comment delete: %w", err)
	}
	return nil
}
