package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgportal-api/internal/models"
)

func TestDocumentRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	uploader := "u1"
	dept := "finance"
	batch := UploadBatch{
		Documents: []models.Document{
			{Title: "report-1", FolderID: "f1", UploadedBy: uploader},
			{Title: "report-2", FolderID: "f1", UploadedBy: uploader},
		},
		Versions: []models.DocumentVersion{
			{FilePath: "s3://a", FileSize: 10, MimeType: "application/pdf", UploadedBy: uploader},
			{FilePath: "s3://b", FileSize: 20, MimeType: "application/pdf", UploadedBy: uploader},
		},
		Access: []models.DocumentAccess{
			{AccessLevel: models.AccessLevelManage, UserID: &uploader, GrantedBy: uploader},
			{AccessLevel: models.AccessLevelEdit, Department: &dept, GrantedBy: uploader},
		},
		Tags: []models.DocumentTag{{Tag: "q3"}},
		Logs: []models.DocumentLog{
			{UserID: uploader, Action: models.LogActionUpload, Details: "uploaded a.pdf"},
			{UserID: uploader, Action: models.LogActionUpload, Details: "uploaded b.pdf"},
		},
		Uploader: uploader,
	}

	mock.ExpectBegin()
	for range batch.Documents {
		mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO document_versions").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE documents SET current_version_id").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for range batch.Access {
		mock.ExpectExec("INSERT INTO document_access").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("INSERT INTO document_tags").WillReturnResult(sqlmock.NewResult(0, 1))
	for range batch.Logs {
		mock.ExpectExec("INSERT INTO document_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("UPDATE employees SET document_count").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateBatch(context.Background(), batch)
	require.NoError(t, err)

	for i := range batch.Documents {
		doc := batch.Documents[i]
		assert.NotEmpty(t, doc.ID)
		assert.Equal(t, models.DocumentStatusActive, doc.Status)
		require.NotNil(t, doc.CurrentVersionID)
		assert.Equal(t, batch.Versions[i].ID, *doc.CurrentVersionID)
		assert.Equal(t, 1, doc.CurrentVersion)
		assert.Equal(t, doc.ID, batch.Versions[i].DocumentID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCreateBatchMismatch(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	err := repo.CreateBatch(context.Background(), UploadBatch{
		Documents: []models.Document{{Title: "a"}},
	})
	assert.Error(t, err)
}

func TestDocumentRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents SET current_version_id = NULL").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM document_access").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM document_tags").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM document_comments").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM document_logs").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM document_versions").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 1))
	// The tombstone audit row outlives the document.
	mock.ExpectExec("INSERT INTO document_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "d1", "u1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents SET current_version_id = NULL").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM document_access").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM document_tags").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM document_comments").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM document_logs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM document_versions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing", "u1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCreateBatchRollsBackOnTagFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	uploader := "u1"
	batch := UploadBatch{
		Documents: []models.Document{{Title: "report", FolderID: "f1", UploadedBy: uploader}},
		Versions:  []models.DocumentVersion{{FilePath: "s3://a", UploadedBy: uploader}},
		Tags:      []models.DocumentTag{{Tag: "q3"}},
		Uploader:  uploader,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_versions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents SET current_version_id").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_tags").WillReturnError(errors.New("tag constraint violation"))
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), batch)
	require.Error(t, err)
	// Nothing written before the failure survives: the document, version and
	// pointer rows all roll back with the tag insert.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryArchiveWritesLog(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Archive(context.Background(), "d1", "u1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryArchiveNotActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Archive(context.Background(), "d1", "u1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
