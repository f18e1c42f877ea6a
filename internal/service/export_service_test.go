package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/models"
	"github.com/noah-isme/orgportal-api/internal/repository"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
	"github.com/noah-isme/orgportal-api/pkg/jobs"
	"github.com/noah-isme/orgportal-api/pkg/storage"
)

type exportStoreStub struct {
	jobs map[string]*models.ExportJob
}

func newExportStoreStub() *exportStoreStub {
	return &exportStoreStub{jobs: make(map[string]*models.ExportJob)}
}

func (s *exportStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	copy := *job
	s.jobs[job.ID] = &copy
	return nil
}

func (s *exportStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if job, ok := s.jobs[id]; ok {
		copy := *job
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *exportStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	job.Status = params.Status
	if params.FilePath != nil {
		job.FilePath = params.FilePath
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	job.ErrorMessage = params.ErrorMessage
	return nil
}

type queueStub struct {
	enqueued []jobs.Job
}

func (s *queueStub) Enqueue(job jobs.Job) error {
	s.enqueued = append(s.enqueued, job)
	return nil
}

type exportFixture struct {
	store   *exportStoreStub
	docs    *documentStoreStub
	access  *accessListerStub
	logs    *logListerStub
	queue   *queueStub
	metrics *metricsStub
	svc     *ExportService
}

type metricsStub struct {
	statuses []string
}

func (s *metricsStub) ObserveExportJob(status string) {
	s.statuses = append(s.statuses, status)
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", 30*time.Minute)

	f := &exportFixture{
		store:   newExportStoreStub(),
		docs:    newDocumentStoreStub(),
		access:  &accessListerStub{grants: make(map[string][]models.DocumentAccess)},
		logs:    &logListerStub{},
		queue:   &queueStub{},
		metrics: &metricsStub{},
	}
	f.svc = NewExportService(f.store, f.docs, f.access, f.logs, NewAccessService("admin"), store, signer, f.metrics, nil, nil)
	f.svc.BindQueue(f.queue)
	return f
}

func TestExportServiceEnqueueRequiresVisibility(t *testing.T) {
	fx := newExportFixture(t)
	fx.docs.docs["d1"] = &models.Document{ID: "d1", UploadedBy: "u9"}

	_, err := fx.svc.Enqueue(context.Background(), "d1", dto.CreateExportRequest{Format: models.ExportFormatCSV}, financeIdentity())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	fx.docs.docs["d1"].Public = true
	job, err := fx.svc.Enqueue(context.Background(), "d1", dto.CreateExportRequest{Format: models.ExportFormatCSV}, financeIdentity())
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.Len(t, fx.queue.enqueued, 1)
	assert.Equal(t, job.ID, fx.queue.enqueued[0].ID)
}

func TestExportServiceProcessFinishesJob(t *testing.T) {
	fx := newExportFixture(t)
	fx.docs.docs["d1"] = &models.Document{ID: "d1", UploadedBy: "u1", Public: true}
	fx.docs.details = []models.DocumentDetail{
		{Document: models.Document{ID: "d1", Title: "Handbook", UploadedBy: "u1"}},
	}
	fx.logs.entries = []models.DocumentLogDetail{
		{DocumentLog: models.DocumentLog{Action: models.LogActionUpload, Details: "uploaded h.pdf", CreatedAt: time.Now()}, ActorName: "Alex"},
	}

	job, err := fx.svc.Enqueue(context.Background(), "d1", dto.CreateExportRequest{Format: models.ExportFormatCSV}, financeIdentity())
	require.NoError(t, err)

	require.NoError(t, fx.svc.Process(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))

	stored, err := fx.store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	require.NotNil(t, stored.FilePath)
	assert.True(t, strings.HasSuffix(*stored.FilePath, ".csv"))
	assert.Equal(t, []string{string(models.ExportStatusFinished)}, fx.metrics.statuses)

	// Status now carries a signed download URL, and the token round-trips.
	resp, err := fx.svc.Status(context.Background(), job.ID, financeIdentity())
	require.NoError(t, err)
	require.NotNil(t, resp.DownloadURL)
	token := (*resp.DownloadURL)[strings.Index(*resp.DownloadURL, "token=")+len("token="):]

	file, downloaded, err := fx.svc.Download(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, job.ID, downloaded.ID)
}

func TestExportServiceStatusRestrictedToCreator(t *testing.T) {
	fx := newExportFixture(t)
	fx.store.jobs["j1"] = &models.ExportJob{ID: "j1", DocumentID: "d1", Status: models.ExportStatusQueued, CreatedBy: "u9"}

	_, err := fx.svc.Status(context.Background(), "j1", financeIdentity())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	admin := &models.Identity{ID: "u2", Role: models.RoleAdmin}
	resp, err := fx.svc.Status(context.Background(), "j1", admin)
	require.NoError(t, err)
	assert.Nil(t, resp.DownloadURL)
}

func TestExportServiceProcessUnsupportedFormatFails(t *testing.T) {
	fx := newExportFixture(t)
	fx.docs.docs["d1"] = &models.Document{ID: "d1", UploadedBy: "u1", Public: true}
	fx.docs.details = []models.DocumentDetail{
		{Document: models.Document{ID: "d1", Title: "Handbook", UploadedBy: "u1"}},
	}
	fx.store.jobs["j1"] = &models.ExportJob{ID: "j1", DocumentID: "d1", Format: "xlsx", Status: models.ExportStatusQueued, CreatedBy: "u1"}

	require.NoError(t, fx.svc.Process(context.Background(), jobs.Job{ID: "j1", Payload: "j1"}))
	stored, err := fx.store.GetByID(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
}
