package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/orgportal-api/internal/models"
)

const exportColumns = `id, document_id, format, status, file_path, created_by, created_at, finished_at, error_message`

// ExportRepository persists activity export job metadata.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create stores a freshly queued job.
func (r *ExportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO export_jobs
	(id, document_id, format, status, file_path, created_by, created_at, finished_at, error_message)
	VALUES (:id, :document_id, :format, :status, :file_path, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID retrieves one export job.
func (r *ExportRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM export_jobs WHERE id = $1`, exportColumns)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateExportJobParams carries optional fields for job progression.
type UpdateExportJobParams struct {
	Status       models.ExportStatus
	FilePath     *string
	FinishedAt   *time.Time
	ErrorMessage *string
}

// Update progresses a job through its lifecycle.
func (r *ExportRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	const query = `UPDATE export_jobs SET
	status = $2,
	file_path = COALESCE($3, file_path),
	finished_at = COALESCE($4, finished_at),
	error_message = $5
	WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, params.Status, params.FilePath, params.FinishedAt, params.ErrorMessage); err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	return nil
}
