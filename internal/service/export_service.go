package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/models"
	"github.com/noah-isme/orgportal-api/internal/repository"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
	"github.com/noah-isme/orgportal-api/pkg/export"
	"github.com/noah-isme/orgportal-api/pkg/jobs"
	"github.com/noah-isme/orgportal-api/pkg/storage"
)

type exportStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
}

type exportQueue interface {
	Enqueue(job jobs.Job) error
}

type exportMetrics interface {
	ObserveExportJob(status string)
}

// ExportService renders document activity trails into downloadable CSV or
// PDF reports. Jobs run on a background worker queue; finished files are
// served through short-lived signed URLs.
type ExportService struct {
	jobsRepo  exportStore
	docs      documentStore
	access    accessLister
	logs      logLister
	resolver  *AccessService
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     exportQueue
	metrics   exportMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs the service; call BindQueue before enqueueing.
func NewExportService(jobsRepo exportStore, docs documentStore, access accessLister, logs logLister, resolver *AccessService, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics exportMetrics, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewAccessService("")
	}
	return &ExportService{
		jobsRepo:  jobsRepo,
		docs:      docs,
		access:    access,
		logs:      logs,
		resolver:  resolver,
		store:     store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// BindQueue attaches the worker queue the service enqueues onto.
func (s *ExportService) BindQueue(q exportQueue) {
	s.queue = q
}

// Enqueue creates an export job for a document the caller may view and
// schedules the render.
func (s *ExportService) Enqueue(ctx context.Context, documentID string, req dto.CreateExportRequest, caller *models.Identity) (*models.ExportJob, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if s.queue == nil {
		return nil, appErrors.ErrExportUnavailable
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid export payload")
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Storage(err)
	}
	grants, err := s.access.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	if !s.resolver.CanView(doc, grants, caller) {
		return nil, appErrors.ErrForbidden
	}

	job := &models.ExportJob{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Format:     req.Format,
		Status:     models.ExportStatusQueued,
		CreatedBy:  caller.ID,
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Storage(err)
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "document_activity_export", Payload: job.ID}); err != nil {
		now := time.Now().UTC()
		msg := "export queue unavailable"
		_ = s.jobsRepo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       models.ExportStatusFailed,
			FinishedAt:   &now,
			ErrorMessage: &msg,
		})
		return nil, appErrors.ErrExportUnavailable
	}
	s.logger.Info("export job queued",
		zap.String("job_id", job.ID),
		zap.String("document_id", documentID),
		zap.String("format", string(job.Format)))
	return job, nil
}

// Process is the queue handler: it renders the activity trail and progresses
// the job to a terminal state.
func (s *ExportService) Process(ctx context.Context, queued jobs.Job) error {
	jobID, ok := queued.Payload.(string)
	if !ok || jobID == "" {
		return fmt.Errorf("export job payload is not a job id")
	}

	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}
	if job.Status == models.ExportStatusFinished || job.Status == models.ExportStatusFailed {
		return nil
	}

	if err := s.jobsRepo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: models.ExportStatusProcessing}); err != nil {
		return err
	}

	relPath, renderErr := s.render(ctx, job)
	now := time.Now().UTC()
	if renderErr != nil {
		msg := renderErr.Error()
		if err := s.jobsRepo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       models.ExportStatusFailed,
			FinishedAt:   &now,
			ErrorMessage: &msg,
		}); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.ObserveExportJob(string(models.ExportStatusFailed))
		}
		s.logger.Error("export job failed", zap.String("job_id", job.ID), zap.Error(renderErr))
		return nil
	}

	if err := s.jobsRepo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:     models.ExportStatusFinished,
		FilePath:   &relPath,
		FinishedAt: &now,
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveExportJob(string(models.ExportStatusFinished))
	}
	s.logger.Info("export job finished", zap.String("job_id", job.ID), zap.String("file", relPath))
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) (string, error) {
	doc, err := s.docs.GetDetail(ctx, job.DocumentID)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	entries, err := s.logs.ListByDocument(ctx, job.DocumentID)
	if err != nil {
		return "", fmt.Errorf("load activity trail: %w", err)
	}

	table := export.Table{
		Headers: []string{"Timestamp", "Actor", "Action", "Details"},
	}
	for _, entry := range entries {
		table.Rows = append(table.Rows, []string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.ActorName,
			entry.Action,
			entry.Details,
		})
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(table)
	case models.ExportFormatPDF:
		title := fmt.Sprintf("Activity report: %s", doc.Title)
		payload, err = s.pdf.Render(table, title)
	default:
		err = fmt.Errorf("unsupported export format %q", job.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s/%s.%s", job.DocumentID, job.ID, job.Format)
	return s.store.Save(filename, payload)
}

// Status returns job metadata, adding a signed download URL once finished.
// Only the job creator may poll it.
func (s *ExportService) Status(ctx context.Context, jobID string, caller *models.Identity) (*dto.ExportJobResponse, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Storage(err)
	}
	if job.CreatedBy != caller.ID && caller.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}

	resp := &dto.ExportJobResponse{ExportJob: *job}
	if job.Status == models.ExportStatusFinished && job.FilePath != nil && s.signer != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "failed to sign download url")
		}
		url := fmt.Sprintf("/api/v1/exports/download?token=%s", token)
		resp.DownloadURL = &url
	}
	return resp, nil
}

// Cleanup removes rendered export files older than the given age and returns
// the deleted names.
func (s *ExportService) Cleanup(ctx context.Context, olderThan time.Duration, caller *models.Identity) ([]string, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if s.store == nil {
		return nil, appErrors.ErrExportUnavailable
	}
	if olderThan <= 0 {
		olderThan = 24 * time.Hour
	}
	deleted, err := s.store.CleanupOlderThan(olderThan)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	s.logger.Info("export files cleaned up", zap.Int("deleted", len(deleted)), zap.String("actor", caller.ID))
	return deleted, nil
}

// Download validates a signed token and opens the rendered file. The token
// itself is the credential; no bearer token is required.
func (s *ExportService) Download(ctx context.Context, token string) (*os.File, *models.ExportJob, error) {
	if s.signer == nil || s.store == nil {
		return nil, nil, appErrors.ErrExportUnavailable
	}
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, nil, appErrors.Storage(err)
	}
	if job.Status != models.ExportStatusFinished || job.FilePath == nil || *job.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export file not available")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export file not available")
	}
	return file, job, nil
}
