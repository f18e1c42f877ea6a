package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/models"
	"github.com/noah-isme/orgportal-api/internal/repository"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
)

type versionStoreStub struct {
	versions  map[string]*models.DocumentVersion
	chain     []models.DocumentVersion
	added     []*models.DocumentVersion
	deleted   []string
	deleteErr error
}

func newVersionStoreStub() *versionStoreStub {
	return &versionStoreStub{versions: make(map[string]*models.DocumentVersion)}
}

func (s *versionStoreStub) GetByID(ctx context.Context, id string) (*models.DocumentVersion, error) {
	if version, ok := s.versions[id]; ok {
		copy := *version
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *versionStoreStub) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	return s.chain, nil
}

func (s *versionStoreStub) Add(ctx context.Context, version *models.DocumentVersion, actorID string) error {
	version.ID = "v-new"
	version.VersionNumber = len(s.chain) + 1
	s.added = append(s.added, version)
	return nil
}

func (s *versionStoreStub) Delete(ctx context.Context, version *models.DocumentVersion, actorID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, version.ID)
	return nil
}

type versionFixture struct {
	versions *versionStoreStub
	docs     *documentStoreStub
	access   *accessListerStub
	cache    *cacheStub
	metrics  *recorderStub
	svc      *VersionService
}

func newVersionFixture() *versionFixture {
	f := &versionFixture{
		versions: newVersionStoreStub(),
		docs:     newDocumentStoreStub(),
		access:   &accessListerStub{grants: make(map[string][]models.DocumentAccess)},
		cache:    &cacheStub{},
		metrics:  &recorderStub{},
	}
	f.svc = NewVersionService(f.versions, f.docs, f.access, NewAccessService("admin"), f.cache, f.metrics, nil, nil)
	return f
}

func TestVersionServiceAddRequiresEditPermission(t *testing.T) {
	fx := newVersionFixture()
	fx.docs.docs["d1"] = &models.Document{ID: "d1", FolderID: "f1", UploadedBy: "u9", Public: true}

	req := dto.AddVersionRequest{FileName: "a.pdf", FilePath: "s3://a"}
	// Public visibility alone is not a write grant.
	_, err := fx.svc.Add(context.Background(), "d1", req, financeIdentity())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	fx.access.grants["d1"] = []models.DocumentAccess{{UserID: strPtr("u1"), AccessLevel: models.AccessLevelEdit}}
	version, err := fx.svc.Add(context.Background(), "d1", req, financeIdentity())
	require.NoError(t, err)
	assert.Equal(t, "v-new", version.ID)
	assert.Equal(t, "u1", version.UploadedBy)
	assert.Contains(t, fx.cache.invalidated, "documents:folder:f1:*")
	assert.Equal(t, []string{"upload_version"}, fx.metrics.ops)
}

func TestVersionServiceDeleteCurrentProtected(t *testing.T) {
	fx := newVersionFixture()
	fx.docs.docs["d1"] = &models.Document{ID: "d1", FolderID: "f1", UploadedBy: "u1"}
	fx.versions.versions["v1"] = &models.DocumentVersion{ID: "v1", DocumentID: "d1", VersionNumber: 2}
	fx.versions.deleteErr = repository.ErrVersionIsCurrent

	err := fx.svc.Delete(context.Background(), "v1", financeIdentity())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCurrentVersion.Code, appErrors.FromError(err).Code)
}

func TestVersionServiceDeleteRequiresModerateRights(t *testing.T) {
	fx := newVersionFixture()
	fx.docs.docs["d1"] = &models.Document{ID: "d1", FolderID: "f1", UploadedBy: "u9"}
	fx.versions.versions["v1"] = &models.DocumentVersion{ID: "v1", DocumentID: "d1", VersionNumber: 1}

	fx.access.grants["d1"] = []models.DocumentAccess{{UserID: strPtr("u1"), AccessLevel: models.AccessLevelEdit}}
	err := fx.svc.Delete(context.Background(), "v1", financeIdentity())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	fx.access.grants["d1"] = []models.DocumentAccess{{UserID: strPtr("u1"), AccessLevel: models.AccessLevelManage}}
	require.NoError(t, fx.svc.Delete(context.Background(), "v1", financeIdentity()))
	assert.Equal(t, []string{"v1"}, fx.versions.deleted)
}

func TestVersionServiceListGatedByVisibility(t *testing.T) {
	fx := newVersionFixture()
	fx.docs.docs["d1"] = &models.Document{ID: "d1", FolderID: "f1", UploadedBy: "u9"}
	fx.versions.chain = []models.DocumentVersion{{ID: "v2", VersionNumber: 2}, {ID: "v1", VersionNumber: 1}}

	_, err := fx.svc.List(context.Background(), "d1", financeIdentity())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	fx.docs.docs["d1"].Public = true
	versions, err := fx.svc.List(context.Background(), "d1", financeIdentity())
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestVersionServiceAddMissingDocument(t *testing.T) {
	fx := newVersionFixture()
	_, err := fx.svc.Add(context.Background(), "missing", dto.AddVersionRequest{FileName: "a", FilePath: "p"}, financeIdentity())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
