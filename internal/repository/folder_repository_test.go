package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgportal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func folderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "parent_id", "department", "public", "departmental", "root", "created_by", "status", "created_at", "updated_at"})
}

func TestFolderRepositoryFindDepartmental(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	dept := "finance"
	rows := folderRows().
		AddRow("f1", "finance", nil, dept, false, true, false, "u1", "active", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM folders").
		WithArgs("finance", "finance", models.FolderStatusActive).
		WillReturnRows(rows)

	folder, err := repo.FindDepartmental(context.Background(), "finance", "finance")
	require.NoError(t, err)
	assert.Equal(t, "f1", folder.ID)
	assert.True(t, folder.Departmental)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepositoryFindByOwnerAndNameNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM folders").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByOwnerAndName(context.Background(), "u1", "reports", nil)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepositoryCreateLowercasesName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectExec("INSERT INTO folders").
		WillReturnResult(sqlmock.NewResult(0, 1))

	folder := &models.Folder{Name: "  Quarterly Reports ", CreatedBy: "u1"}
	err := repo.Create(context.Background(), folder)
	require.NoError(t, err)
	assert.Equal(t, "quarterly reports", folder.Name)
	assert.NotEmpty(t, folder.ID)
	assert.Equal(t, models.FolderStatusActive, folder.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectExec("INSERT INTO folders").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Folder{Name: "reports", CreatedBy: "u1"})
	assert.True(t, errors.Is(err, ErrDuplicateFolder))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepositoryListVisible(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	dept := "finance"
	rows := folderRows().
		AddRow("f1", "finance", nil, dept, false, true, false, "u9", "active", time.Now(), time.Now()).
		AddRow("f2", "public", nil, nil, true, false, true, "u9", "active", time.Now(), time.Now()).
		AddRow("f3", "reports", nil, nil, false, false, false, "u1", "active", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM folders").
		WithArgs(models.FolderStatusActive, "u1", "finance").
		WillReturnRows(rows)

	folders, err := repo.ListVisible(context.Background(), &models.Identity{ID: "u1", Department: "finance"})
	require.NoError(t, err)
	assert.Len(t, folders, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepositoryRetireMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectExec("UPDATE folders SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Retire(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
