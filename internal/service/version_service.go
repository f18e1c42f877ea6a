package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/models"
	"github.com/noah-isme/orgportal-api/internal/repository"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
)

type versionStore interface {
	GetByID(ctx context.Context, id string) (*models.DocumentVersion, error)
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error)
	Add(ctx context.Context, version *models.DocumentVersion, actorID string) error
	Delete(ctx context.Context, version *models.DocumentVersion, actorID string) error
}

type documentLookup interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

// VersionService manages the per-document version chain: listing, superseding
// the current content, and deleting historical revisions.
type VersionService struct {
	versions  versionStore
	docs      documentLookup
	access    accessLister
	resolver  *AccessService
	cache     listCache
	metrics   operationRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVersionService constructs the service.
func NewVersionService(versions versionStore, docs documentLookup, access accessLister, resolver *AccessService, cache listCache, metrics operationRecorder, validate *validator.Validate, logger *zap.Logger) *VersionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewAccessService("")
	}
	return &VersionService{
		versions:  versions,
		docs:      docs,
		access:    access,
		resolver:  resolver,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns the version chain, newest first, for a document the caller
// may view.
func (s *VersionService) List(ctx context.Context, documentID string, caller *models.Identity) ([]models.DocumentVersion, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	doc, grants, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.CanView(doc, grants, caller) {
		return nil, appErrors.ErrForbidden
	}
	versions, err := s.versions.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	return versions, nil
}

// Add appends a new version and moves the current pointer to it. Requires
// write permission on the document.
func (s *VersionService) Add(ctx context.Context, documentID string, req dto.AddVersionRequest, caller *models.Identity) (*models.DocumentVersion, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid version payload")
	}
	doc, grants, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.CanEdit(doc, grants, caller) {
		return nil, appErrors.ErrForbidden
	}

	version := &models.DocumentVersion{
		DocumentID: documentID,
		FilePath:   req.FilePath,
		FileSize:   req.FileSize,
		MimeType:   req.MimeType,
		UploadedBy: caller.ID,
	}
	if err := s.versions.Add(ctx, version, caller.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Storage(err)
	}

	s.invalidate(ctx, doc.FolderID)
	if s.metrics != nil {
		s.metrics.ObserveDocumentOperation("upload_version")
	}
	s.logger.Info("version added",
		zap.String("document_id", documentID),
		zap.Int("version_number", version.VersionNumber),
		zap.String("actor", caller.ID))
	return version, nil
}

// Delete removes a historical version. The current version is protected; the
// caller needs delete-level rights on the document.
func (s *VersionService) Delete(ctx context.Context, versionID string, caller *models.Identity) error {
	if caller == nil {
		return appErrors.ErrUnauthorized
	}
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "version not found")
		}
		return appErrors.Storage(err)
	}
	doc, grants, err := s.loadDocument(ctx, version.DocumentID)
	if err != nil {
		return err
	}
	if !s.resolver.CanModerate(doc, grants, caller) {
		return appErrors.ErrForbidden
	}

	if err := s.versions.Delete(ctx, version, caller.ID); err != nil {
		if errors.Is(err, repository.ErrVersionIsCurrent) {
			return appErrors.ErrCurrentVersion
		}
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "version not found")
		}
		return appErrors.Storage(err)
	}

	s.invalidate(ctx, doc.FolderID)
	if s.metrics != nil {
		s.metrics.ObserveDocumentOperation("delete_version")
	}
	return nil
}

func (s *VersionService) loadDocument(ctx context.Context, documentID string) (*models.Document, []models.DocumentAccess, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Storage(err)
	}
	grants, err := s.access.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, nil, appErrors.Storage(err)
	}
	return doc, grants, nil
}

func (s *VersionService) invalidate(ctx context.Context, folderID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "documents:folder:"+folderID+":*"); err != nil {
		s.logger.Warn("failed to invalidate folder cache", zap.Error(err), zap.String("folder_id", folderID))
	}
}
