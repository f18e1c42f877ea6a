package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgportal-api/internal/models"
)

func TestVersionRepositoryAddAssignsNextNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_version FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"current_version"}).AddRow(2))
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4))
	mock.ExpectExec("INSERT INTO document_versions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents SET current_version_id").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	version := &models.DocumentVersion{DocumentID: "d1", FilePath: "s3://c", UploadedBy: "u1"}
	err := repo.Add(context.Background(), version, "u1")
	require.NoError(t, err)
	// Numbering follows the chain maximum, not the current pointer: gaps from
	// deleted versions are never reused.
	assert.Equal(t, 5, version.VersionNumber)
	assert.NotEmpty(t, version.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryDeleteCurrentProtected(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_version_id FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"current_version_id"}).AddRow("v1"))
	mock.ExpectRollback()

	version := &models.DocumentVersion{ID: "v1", DocumentID: "d1", VersionNumber: 3}
	err := repo.Delete(context.Background(), version, "u1")
	assert.True(t, errors.Is(err, ErrVersionIsCurrent))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryDeleteNonCurrent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_version_id FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"current_version_id"}).AddRow("v9"))
	mock.ExpectExec("DELETE FROM document_versions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	version := &models.DocumentVersion{ID: "v1", DocumentID: "d1", VersionNumber: 1}
	err := repo.Delete(context.Background(), version, "u1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionRepositoryListByDocument(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVersionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "document_id", "version_number", "file_path", "file_size", "mime_type", "uploaded_by"}).
		AddRow("v2", "d1", 2, "s3://b", 20, "application/pdf", "u1").
		AddRow("v1", "d1", 1, "s3://a", 10, "application/pdf", "u1")
	mock.ExpectQuery("SELECT (.+) FROM document_versions").
		WithArgs("d1").
		WillReturnRows(rows)

	versions, err := repo.ListByDocument(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
