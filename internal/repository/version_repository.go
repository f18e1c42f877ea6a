package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/orgportal-api/internal/models"
)

// ErrVersionIsCurrent signals an attempt to delete the version the document
// currently points to. It must first be superseded.
var ErrVersionIsCurrent = errors.New("version is current")

const versionColumns = `id, document_id, version_number, file_path, file_size, mime_type, uploaded_by, created_at`

// VersionRepository maintains the per-document version chain.
type VersionRepository struct {
	db *sqlx.DB
}

// NewVersionRepository constructs the repository.
func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// GetByID retrieves one version row.
func (r *VersionRepository) GetByID(ctx context.Context, id string) (*models.DocumentVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_versions WHERE id = $1`, versionColumns)
	var version models.DocumentVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// ListByDocument returns the chain most-recent first.
func (r *VersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_versions WHERE document_id = $1 ORDER BY version_number DESC`, versionColumns)
	var versions []models.DocumentVersion
	if err := r.db.SelectContext(ctx, &versions, query, documentID); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// Add inserts the next version and repoints the document, in one
// transaction. The document row is locked so concurrent adds serialise and
// version numbers stay strictly increasing.
func (r *VersionRepository) Add(ctx context.Context, version *models.DocumentVersion, actorID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin version transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current int
	const lockQuery = `SELECT current_version FROM documents WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &current, lockQuery, version.DocumentID); err != nil {
		return err
	}

	var prior int
	const maxQuery = `SELECT COALESCE(MAX(version_number), 0) FROM document_versions WHERE document_id = $1`
	if err = tx.GetContext(ctx, &prior, maxQuery, version.DocumentID); err != nil {
		return fmt.Errorf("read prior version number: %w", err)
	}

	now := time.Now().UTC()
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	version.VersionNumber = prior + 1
	version.CreatedAt = now

	const insertQuery = `INSERT INTO document_versions
	(id, document_id, version_number, file_path, file_size, mime_type, uploaded_by, created_at)
	VALUES (:id, :document_id, :version_number, :file_path, :file_size, :mime_type, :uploaded_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, version); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	const repoint = `UPDATE documents SET current_version_id = $2, current_version = $3, updated_at = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, repoint, version.DocumentID, version.ID, version.VersionNumber, now); err != nil {
		return fmt.Errorf("repoint current version: %w", err)
	}

	const insertLog = `INSERT INTO document_logs
	(id, user_id, document_id, document_version_id, action, details, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	details := fmt.Sprintf("uploaded version %d", version.VersionNumber)
	if _, err = tx.ExecContext(ctx, insertLog, uuid.NewString(), actorID, version.DocumentID, version.ID, models.LogActionUploadVersion, details, now); err != nil {
		return fmt.Errorf("insert version log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit version: %w", err)
	}
	return nil
}

// Delete removes a non-current version and logs the action. The document row
// is locked while the current-pointer check runs so a concurrent supersede
// cannot slip between check and delete.
func (r *VersionRepository) Delete(ctx context.Context, version *models.DocumentVersion, actorID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin version delete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var currentID *string
	const lockQuery = `SELECT current_version_id FROM documents WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &currentID, lockQuery, version.DocumentID); err != nil {
		return err
	}
	if currentID != nil && *currentID == version.ID {
		err = ErrVersionIsCurrent
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM document_versions WHERE id = $1`, version.ID); err != nil {
		return fmt.Errorf("delete version: %w", err)
	}

	const insertLog = `INSERT INTO document_logs
	(id, user_id, document_id, document_version_id, action, details, created_at)
	VALUES ($1, $2, $3, NULL, $4, $5, $6)`
	details := fmt.Sprintf("deleted version %d", version.VersionNumber)
	if _, err = tx.ExecContext(ctx, insertLog, uuid.NewString(), actorID, version.DocumentID, models.LogActionDeleteVersion, details, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert version delete log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit version delete: %w", err)
	}
	return nil
}
