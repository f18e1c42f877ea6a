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

const documentColumns = `id, title, description, original_file_name, department, departmental, public,
	folder_id, uploaded_by, status, current_version_id, current_version, created_at, updated_at`

// DocumentRepository handles document persistence including the multi-table
// upload and delete transactions.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// GetByID retrieves one document row.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDetail retrieves one document with joined uploader, folder and current
// version metadata.
func (r *DocumentRepository) GetDetail(ctx context.Context, id string) (*models.DocumentDetail, error) {
	const query = `SELECT d.id, d.title, d.description, d.original_file_name, d.department, d.departmental,
	d.public, d.folder_id, d.uploaded_by, d.status, d.current_version_id, d.current_version,
	d.created_at, d.updated_at,
	e.full_name AS uploader_name,
	f.name AS folder_name,
	v.file_path AS current_file_path,
	v.mime_type AS current_mime_type,
	v.file_size AS current_file_size
FROM documents d
JOIN employees e ON e.id = d.uploaded_by
JOIN folders f ON f.id = d.folder_id
LEFT JOIN document_versions v ON v.id = d.current_version_id
WHERE d.id = $1`
	var detail models.DocumentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByFolder returns all active documents in a folder with joined
// metadata. Access filtering happens in the service layer against the
// batched grants.
func (r *DocumentRepository) ListByFolder(ctx context.Context, folderID string) ([]models.DocumentDetail, error) {
	const query = `SELECT d.id, d.title, d.description, d.original_file_name, d.department, d.departmental,
	d.public, d.folder_id, d.uploaded_by, d.status, d.current_version_id, d.current_version,
	d.created_at, d.updated_at,
	e.full_name AS uploader_name,
	f.name AS folder_name,
	v.file_path AS current_file_path,
	v.mime_type AS current_mime_type,
	v.file_size AS current_file_size
FROM documents d
JOIN employees e ON e.id = d.uploaded_by
JOIN folders f ON f.id = d.folder_id
LEFT JOIN document_versions v ON v.id = d.current_version_id
WHERE d.folder_id = $1 AND d.status = $2
ORDER BY d.created_at DESC`
	var docs []models.DocumentDetail
	if err := r.db.SelectContext(ctx, &docs, query, folderID, models.DocumentStatusActive); err != nil {
		return nil, fmt.Errorf("list folder documents: %w", err)
	}
	return docs, nil
}

// UploadBatch carries every row written by one upload operation. Documents,
// Versions and Logs are parallel slices: index i describes file i.
type UploadBatch struct {
	Documents []models.Document
	Versions  []models.DocumentVersion
	Access    []models.DocumentAccess
	Tags      []models.DocumentTag
	Logs      []models.DocumentLog
	Uploader  string
}

// CreateBatch executes the whole upload in one transaction: document rows,
// version-1 rows, current-version repoints, access grants, tags, audit rows
// and the uploader's document counter. Partial uploads are never observable.
func (r *DocumentRepository) CreateBatch(ctx context.Context, batch UploadBatch) (err error) {
	if len(batch.Documents) == 0 || len(batch.Documents) != len(batch.Versions) {
		return fmt.Errorf("upload batch requires matching documents and versions")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upload transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	const insertDoc = `INSERT INTO documents
	(id, title, description, original_file_name, department, departmental, public, folder_id,
	 uploaded_by, status, current_version_id, current_version, created_at, updated_at)
	VALUES (:id, :title, :description, :original_file_name, :department, :departmental, :public, :folder_id,
	 :uploaded_by, :status, NULL, 0, :created_at, :updated_at)`
	const insertVersion = `INSERT INTO document_versions
	(id, document_id, version_number, file_path, file_size, mime_type, uploaded_by, created_at)
	VALUES (:id, :document_id, :version_number, :file_path, :file_size, :mime_type, :uploaded_by, :created_at)`
	const repoint = `UPDATE documents SET current_version_id = $2, current_version = $3, updated_at = $4 WHERE id = $1`

	for i := range batch.Documents {
		doc := &batch.Documents[i]
		version := &batch.Versions[i]
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		doc.Status = models.DocumentStatusActive
		doc.CreatedAt = now
		doc.UpdatedAt = now
		if version.ID == "" {
			version.ID = uuid.NewString()
		}
		version.DocumentID = doc.ID
		version.VersionNumber = 1
		version.CreatedAt = now

		if _, err = tx.NamedExecContext(ctx, insertDoc, doc); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		if _, err = tx.NamedExecContext(ctx, insertVersion, version); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
		// The pointer is only set after the version row is durably part of
		// the same transaction, so it can never reference a missing row.
		if _, err = tx.ExecContext(ctx, repoint, doc.ID, version.ID, version.VersionNumber, now); err != nil {
			return fmt.Errorf("repoint current version: %w", err)
		}
		doc.CurrentVersionID = &version.ID
		doc.CurrentVersion = version.VersionNumber
	}

	const insertAccess = `INSERT INTO document_access
	(id, document_id, access_level, user_id, department, granted_by, created_at)
	VALUES (:id, :document_id, :access_level, :user_id, :department, :granted_by, :created_at)`
	for i := range batch.Access {
		grant := &batch.Access[i]
		if grant.ID == "" {
			grant.ID = uuid.NewString()
		}
		grant.CreatedAt = now
		if _, err = tx.NamedExecContext(ctx, insertAccess, grant); err != nil {
			return fmt.Errorf("insert access grant: %w", err)
		}
	}

	const insertTag = `INSERT INTO document_tags (id, document_id, tag) VALUES (:id, :document_id, :tag)`
	for i := range batch.Tags {
		tag := &batch.Tags[i]
		if tag.ID == "" {
			tag.ID = uuid.NewString()
		}
		if _, err = tx.NamedExecContext(ctx, insertTag, tag); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}

	const insertLog = `INSERT INTO document_logs
	(id, user_id, document_id, document_version_id, action, details, created_at)
	VALUES (:id, :user_id, :document_id, :document_version_id, :action, :details, :created_at)`
	for i := range batch.Logs {
		entry := &batch.Logs[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.CreatedAt = now
		if _, err = tx.NamedExecContext(ctx, insertLog, entry); err != nil {
			return fmt.Errorf("insert document log: %w", err)
		}
	}

	// Atomic increment, never read-modify-write: concurrent uploads by the
	// same employee must not lose updates.
	const bumpCounter = `UPDATE employees SET document_count = document_count + $2, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, bumpCounter, batch.Uploader, len(batch.Documents), now); err != nil {
		return fmt.Errorf("increment document counter: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upload: %w", err)
	}
	return nil
}

// Delete removes a document and its dependents in one transaction,
// children before parent to satisfy referential constraints. The trail is
// collapsed to a single tombstone row recording who deleted the document;
// document_logs carries no foreign key to documents so the row outlives it.
func (r *DocumentRepository) Delete(ctx context.Context, id, actorID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// The current-version pointer references a version row; clear it first
	// so the version delete does not trip the foreign key.
	if _, err = tx.ExecContext(ctx, `UPDATE documents SET current_version_id = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("clear current version pointer: %w", err)
	}

	cleanup := []string{
		`DELETE FROM document_access WHERE document_id = $1`,
		`DELETE FROM document_tags WHERE document_id = $1`,
		`DELETE FROM document_comments WHERE document_id = $1`,
		`DELETE FROM document_logs WHERE document_id = $1`,
		`DELETE FROM document_versions WHERE document_id = $1`,
	}
	for _, query := range cleanup {
		if _, err = tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("cascade delete: %w", err)
		}
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = r.insertLog(ctx, tx, id, actorID, models.LogActionDelete, "document deleted"); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// Archive sets the one-way archived status and records the transition in
// the audit trail within the same transaction.
func (r *DocumentRepository) Archive(ctx context.Context, id, actorID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	var res sql.Result
	if res, err = tx.ExecContext(ctx, query, id, models.DocumentStatusArchived, time.Now().UTC(), models.DocumentStatusActive); err != nil {
		return fmt.Errorf("archive document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check archive rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = r.insertLog(ctx, tx, id, actorID, models.LogActionArchive, "document archived"); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	return nil
}

func (r *DocumentRepository) insertLog(ctx context.Context, tx *sqlx.Tx, documentID, actorID, action, details string) error {
	entry := models.DocumentLog{
		ID:         uuid.NewString(),
		UserID:     actorID,
		DocumentID: documentID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	const query = `INSERT INTO document_logs
	(id, user_id, document_id, document_version_id, action, details, created_at)
	VALUES (:id, :user_id, :document_id, :document_version_id, :action, :details, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert %s log: %w", action, err)
	}
	return nil
}
