package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/orgportal-api/internal/models"
)

// ErrDuplicateFolder signals a unique-constraint hit on
// (created_by, parent_id, lower(name)). Callers should re-run the lookup:
// a concurrent request created the folder first.
var ErrDuplicateFolder = errors.New("folder already exists")

const folderColumns = `id, name, parent_id, department, public, departmental, root, created_by, status, created_at, updated_at`

// FolderRepository handles folder persistence.
type FolderRepository struct {
	db *sqlx.DB
}

// NewFolderRepository constructs the repository.
func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// FindByID retrieves one active folder row.
func (r *FolderRepository) FindByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders WHERE id = $1 AND status = $2`, folderColumns)
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, id, models.FolderStatusActive); err != nil {
		return nil, err
	}
	return &folder, nil
}

// FindDepartmental looks up the shared folder for a department by name.
func (r *FolderRepository) FindDepartmental(ctx context.Context, name, department string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders
	WHERE departmental = TRUE AND department = $1 AND lower(name) = lower($2) AND status = $3
	LIMIT 1`, folderColumns)
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, department, name, models.FolderStatusActive); err != nil {
		return nil, err
	}
	return &folder, nil
}

// FindPublic returns the singleton public folder.
func (r *FolderRepository) FindPublic(ctx context.Context) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders
	WHERE public = TRUE AND status = $1
	ORDER BY created_at ASC LIMIT 1`, folderColumns)
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, models.FolderStatusActive); err != nil {
		return nil, err
	}
	return &folder, nil
}

// FindByOwnerAndName looks up a caller-owned folder by case-normalised name
// within one parent scope.
func (r *FolderRepository) FindByOwnerAndName(ctx context.Context, ownerID, name string, parentID *string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders
	WHERE created_by = $1 AND lower(name) = lower($2) AND parent_id IS NOT DISTINCT FROM $3 AND status = $4
	LIMIT 1`, folderColumns)
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, ownerID, name, parentID, models.FolderStatusActive); err != nil {
		return nil, err
	}
	return &folder, nil
}

// Create inserts a folder row. Names are stored lower-cased; the store-level
// unique index on (created_by, parent_id, lower(name)) closes the
// check-then-insert race, surfaced as ErrDuplicateFolder.
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	folder.Name = strings.ToLower(strings.TrimSpace(folder.Name))
	if folder.Status == "" {
		folder.Status = models.FolderStatusActive
	}
	now := time.Now().UTC()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	folder.UpdatedAt = now

	const query = `INSERT INTO folders
	(id, name, parent_id, department, public, departmental, root, created_by, status, created_at, updated_at)
	VALUES (:id, :name, :parent_id, :department, :public, :departmental, :root, :created_by, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, folder); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateFolder
		}
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

// ListVisible returns folders the caller may open: their own, their
// department's shared folders, and the public folder.
func (r *FolderRepository) ListVisible(ctx context.Context, caller *models.Identity) ([]models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM folders
	WHERE status = $1 AND (created_by = $2 OR public = TRUE OR (departmental = TRUE AND department = $3))
	ORDER BY name ASC`, folderColumns)
	var folders []models.Folder
	if err := r.db.SelectContext(ctx, &folders, query, models.FolderStatusActive, caller.ID, caller.Department); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// Retire soft-deletes a folder.
func (r *FolderRepository) Retire(ctx context.Context, id string) error {
	const query = `UPDATE folders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.FolderStatusRetired, time.Now().UTC(), models.FolderStatusActive)
	if err != nil {
		return fmt.Errorf("retire folder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check folder retire rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
