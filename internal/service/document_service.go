package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/models"
	"github.com/noah-isme/orgportal-api/internal/repository"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
)

type documentStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	GetDetail(ctx context.Context, id string) (*models.DocumentDetail, error)
	ListByFolder(ctx context.Context, folderID string) ([]models.DocumentDetail, error)
	CreateBatch(ctx context.Context, batch repository.UploadBatch) error
	Delete(ctx context.Context, id, actorID string) error
	Archive(ctx context.Context, id, actorID string) error
}

type accessLister interface {
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentAccess, error)
	ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]models.DocumentAccess, error)
}

type accessStore interface {
	accessLister
	Grant(ctx context.Context, grant *models.DocumentAccess) error
}

type tagLister interface {
	ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]string, error)
}

type logLister interface {
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentLogDetail, error)
}

type counterStore interface {
	IncrementDocumentCount(ctx context.Context, id string, delta int) error
}

type folderDirectory interface {
	ResolveOrCreate(ctx context.Context, caller *models.Identity, targetName string) (*models.Folder, error)
	Get(ctx context.Context, id string, caller *models.Identity) (*models.Folder, error)
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type operationRecorder interface {
	ObserveDocumentOperation(operation string)
}

// DocumentServiceConfig tunes the facade.
type DocumentServiceConfig struct {
	ListCacheTTL   time.Duration
	MaxUploadFiles int
	MaxTitleLength int
}

// DocumentService orchestrates the document facade: listing, bulk upload,
// delete, archive and the audit trail. Every caller identity is an explicit
// parameter; nothing reads ambient request state.
type DocumentService struct {
	docs      documentStore
	access    accessStore
	tags      tagLister
	logs      logLister
	employees counterStore
	folders   folderDirectory
	cache     listCache
	resolver  *AccessService
	metrics   operationRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       DocumentServiceConfig
}

// NewDocumentService constructs the facade with defaults.
func NewDocumentService(docs documentStore, access accessStore, tags tagLister, logs logLister, employees counterStore, folders folderDirectory, cache listCache, resolver *AccessService, metrics operationRecorder, validate *validator.Validate, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewAccessService("")
	}
	if cfg.ListCacheTTL <= 0 {
		cfg.ListCacheTTL = 5 * time.Minute
	}
	if cfg.MaxUploadFiles <= 0 {
		cfg.MaxUploadFiles = 10
	}
	if cfg.MaxTitleLength <= 0 {
		cfg.MaxTitleLength = 255
	}
	return &DocumentService{
		docs:      docs,
		access:    access,
		tags:      tags,
		logs:      logs,
		employees: employees,
		folders:   folders,
		cache:     cache,
		resolver:  resolver,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// ListFolderDocuments loads the active documents of a folder the caller may
// open, enriches them from two batched queries, and filters each row through
// the access resolver.
func (s *DocumentService) ListFolderDocuments(ctx context.Context, folderID string, caller *models.Identity) (*dto.FolderDocumentsResponse, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if _, err := s.folders.Get(ctx, folderID, caller); err != nil {
		return nil, err
	}

	cacheKey := s.listCacheKey(folderID, caller)
	if s.cache != nil {
		var cached dto.FolderDocumentsResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	docs, err := s.docs.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, appErrors.Storage(err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	tagsByDoc, err := s.tags.ListByDocuments(ctx, ids)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	grantsByDoc, err := s.access.ListByDocuments(ctx, ids)
	if err != nil {
		return nil, appErrors.Storage(err)
	}

	visible := make([]models.DocumentDetail, 0, len(docs))
	for _, doc := range docs {
		grants := grantsByDoc[doc.ID]
		if !s.resolver.CanView(&doc.Document, grants, caller) {
			continue
		}
		doc.Tags = tagsByDoc[doc.ID]
		if doc.Tags == nil {
			doc.Tags = []string{}
		}
		doc.Access = grants
		visible = append(visible, doc)
	}

	result := &dto.FolderDocumentsResponse{Documents: visible, Count: len(visible)}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cfg.ListCacheTTL); err != nil {
			s.logger.Warn("failed to cache folder listing", zap.Error(err), zap.String("folder_id", folderID))
		}
	}
	return result, nil
}

// Get returns one enriched document the caller may view.
func (s *DocumentService) Get(ctx context.Context, id string, caller *models.Identity) (*models.DocumentDetail, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	detail, err := s.docs.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Storage(err)
	}
	grants, err := s.access.ListByDocument(ctx, id)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	if !s.resolver.CanView(&detail.Document, grants, caller) {
		return nil, appErrors.ErrForbidden
	}
	tagsByDoc, err := s.tags.ListByDocuments(ctx, []string{id})
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	detail.Tags = tagsByDoc[id]
	if detail.Tags == nil {
		detail.Tags = []string{}
	}
	detail.Access = grants
	return detail, nil
}

// Upload resolves the target folder and persists the whole batch in one
// transaction. Validation failures surface before any write.
func (s *DocumentService) Upload(ctx context.Context, req dto.UploadDocumentsRequest, caller *models.Identity) error {
	if caller == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid upload payload")
	}
	if len(req.Files) > s.cfg.MaxUploadFiles {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d files per upload", s.cfg.MaxUploadFiles))
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if len(title) > s.cfg.MaxTitleLength {
		return appErrors.Clone(appErrors.ErrValidation, "title too long")
	}

	folder, err := s.folders.ResolveOrCreate(ctx, caller, req.Folder)
	if err != nil {
		return err
	}

	batch := s.buildBatch(req, title, folder, caller)
	if err := s.docs.CreateBatch(ctx, batch); err != nil {
		return appErrors.Storage(err)
	}

	s.invalidateFolder(ctx, folder.ID)
	if s.metrics != nil {
		s.metrics.ObserveDocumentOperation("upload")
	}
	s.logger.Info("documents uploaded",
		zap.String("folder_id", folder.ID),
		zap.String("uploader", caller.ID),
		zap.Int("files", len(req.Files)))
	return nil
}

func (s *DocumentService) buildBatch(req dto.UploadDocumentsRequest, title string, folder *models.Folder, caller *models.Identity) repository.UploadBatch {
	batch := repository.UploadBatch{Uploader: caller.ID}
	grantLevel := highestRequestedLevel(req.Permissions)

	for i, file := range req.Files {
		docID := uuid.NewString()
		versionID := uuid.NewString()

		docTitle := title
		if len(req.Files) > 1 {
			docTitle = fmt.Sprintf("%s-%d", title, i+1)
		}
		fileName := file.FileName
		doc := models.Document{
			ID:               docID,
			Title:            docTitle,
			Description:      req.Description,
			OriginalFileName: &fileName,
			Departmental:     req.Departmental,
			Public:           req.Public || folder.Public,
			FolderID:         folder.ID,
			UploadedBy:       caller.ID,
		}
		if doc.Departmental {
			dept := caller.Department
			doc.Department = &dept
		}
		batch.Documents = append(batch.Documents, doc)

		batch.Versions = append(batch.Versions, models.DocumentVersion{
			ID:         versionID,
			DocumentID: docID,
			FilePath:   file.FilePath,
			FileSize:   file.FileSize,
			MimeType:   file.MimeType,
			UploadedBy: caller.ID,
		})

		uploaderID := caller.ID
		batch.Access = append(batch.Access, models.DocumentAccess{
			DocumentID:  docID,
			AccessLevel: models.AccessLevelManage,
			UserID:      &uploaderID,
			GrantedBy:   caller.ID,
		})
		if folder.Departmental && folder.Department != nil && grantLevel != models.AccessLevelNone {
			dept := *folder.Department
			batch.Access = append(batch.Access, models.DocumentAccess{
				DocumentID:  docID,
				AccessLevel: grantLevel,
				Department:  &dept,
				GrantedBy:   caller.ID,
			})
		}

		for _, tag := range req.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			batch.Tags = append(batch.Tags, models.DocumentTag{DocumentID: docID, Tag: tag})
		}

		verID := versionID
		batch.Logs = append(batch.Logs, models.DocumentLog{
			UserID:            caller.ID,
			DocumentID:        docID,
			DocumentVersionID: &verID,
			Action:            models.LogActionUpload,
			Details:           fmt.Sprintf("uploaded %s", file.FileName),
		})
	}
	return batch
}

// Share grants view, edit or manage access to one user or one department.
// Requires delete-level rights on the document.
func (s *DocumentService) Share(ctx context.Context, documentID string, req dto.GrantAccessRequest, caller *models.Identity) (*models.DocumentAccess, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid grant payload")
	}
	if (req.UserID == nil) == (req.Department == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grant exactly one of user_id or department")
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
	if !s.resolver.CanModerate(doc, grants, caller) {
		return nil, appErrors.ErrForbidden
	}

	grant := &models.DocumentAccess{
		DocumentID:  documentID,
		AccessLevel: req.AccessLevel,
		UserID:      req.UserID,
		Department:  req.Department,
		GrantedBy:   caller.ID,
	}
	if err := s.access.Grant(ctx, grant); err != nil {
		return nil, appErrors.Storage(err)
	}
	s.invalidateFolder(ctx, doc.FolderID)
	s.logger.Info("access granted",
		zap.String("document_id", documentID),
		zap.String("level", string(grant.AccessLevel)),
		zap.String("granted_by", caller.ID))
	return grant, nil
}

// Delete hard-deletes a document and its dependents. Owner or admin role.
func (s *DocumentService) Delete(ctx context.Context, id string, caller *models.Identity) error {
	if caller == nil {
		return appErrors.ErrUnauthorized
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Storage(err)
	}
	if !s.resolver.CanAdminister(doc, caller) {
		return appErrors.ErrForbidden
	}
	if err := s.docs.Delete(ctx, id, caller.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Storage(err)
	}
	// The counter is a denormalized convenience; a failed decrement must not
	// undo the delete.
	if s.employees != nil {
		if err := s.employees.IncrementDocumentCount(ctx, doc.UploadedBy, -1); err != nil {
			s.logger.Warn("failed to decrement document counter", zap.Error(err), zap.String("employee_id", doc.UploadedBy))
		}
	}
	s.invalidateFolder(ctx, doc.FolderID)
	if s.metrics != nil {
		s.metrics.ObserveDocumentOperation("delete")
	}
	s.logger.Info("document deleted", zap.String("document_id", id), zap.String("actor", caller.ID))
	return nil
}

// Archive retires a document non-destructively. Owner or admin role. The
// transition is one-way; archiving a non-active document conflicts.
func (s *DocumentService) Archive(ctx context.Context, id string, caller *models.Identity) error {
	if caller == nil {
		return appErrors.ErrUnauthorized
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Storage(err)
	}
	if !s.resolver.CanAdminister(doc, caller) {
		return appErrors.ErrForbidden
	}
	if err := s.docs.Archive(ctx, id, caller.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "document is not active")
		}
		return appErrors.Storage(err)
	}
	s.invalidateFolder(ctx, doc.FolderID)
	if s.metrics != nil {
		s.metrics.ObserveDocumentOperation("archive")
	}
	return nil
}

// ListLogs returns the audit trail, visibility re-derived per call.
func (s *DocumentService) ListLogs(ctx context.Context, documentID string, caller *models.Identity) ([]models.DocumentLogDetail, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
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
	entries, err := s.logs.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	return entries, nil
}

func (s *DocumentService) listCacheKey(folderID string, caller *models.Identity) string {
	return fmt.Sprintf("documents:folder:%s:user:%s", folderID, caller.ID)
}

func (s *DocumentService) invalidateFolder(ctx context.Context, folderID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("documents:folder:%s:*", folderID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate folder cache", zap.Error(err), zap.String("folder_id", folderID))
	}
}

func highestRequestedLevel(requested []models.AccessLevel) models.AccessLevel {
	// manage > edit > view, first match wins.
	for _, want := range []models.AccessLevel{models.AccessLevelManage, models.AccessLevelEdit, models.AccessLevelView} {
		for _, level := range requested {
			if level == want {
				return want
			}
		}
	}
	return models.AccessLevelNone
}
