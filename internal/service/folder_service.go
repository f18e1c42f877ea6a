package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/models"
	"github.com/noah-isme/orgportal-api/internal/repository"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
)

type folderStore interface {
	FindByID(ctx context.Context, id string) (*models.Folder, error)
	FindDepartmental(ctx context.Context, name, department string) (*models.Folder, error)
	FindPublic(ctx context.Context) (*models.Folder, error)
	FindByOwnerAndName(ctx context.Context, ownerID, name string, parentID *string) (*models.Folder, error)
	Create(ctx context.Context, folder *models.Folder) error
	ListVisible(ctx context.Context, caller *models.Identity) ([]models.Folder, error)
	Retire(ctx context.Context, id string) error
}

// FolderService implements the folder directory: shared department/public
// folders are resolved before per-user ones so they are never silently
// duplicated.
type FolderService struct {
	repo       folderStore
	publicName string
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewFolderService constructs the service. publicName is the reserved name
// of the singleton public folder; empty falls back to the model default.
func NewFolderService(repo folderStore, publicName string, validate *validator.Validate, logger *zap.Logger) *FolderService {
	if publicName == "" {
		publicName = models.PublicFolderName
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderService{repo: repo, publicName: publicName, validator: validate, logger: logger}
}

// ResolveOrCreate finds the upload target folder for a caller. Resolution
// order: departmental folder, public singleton, caller-owned folder, then
// creation. The order is load-bearing.
func (s *FolderService) ResolveOrCreate(ctx context.Context, caller *models.Identity, targetName string) (*models.Folder, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	targetName = strings.TrimSpace(targetName)
	if targetName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "folder name is required")
	}

	if strings.EqualFold(targetName, caller.Department) {
		folder, err := s.repo.FindDepartmental(ctx, targetName, caller.Department)
		if err == nil {
			return folder, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Storage(err)
		}
	}

	if strings.EqualFold(targetName, s.publicName) {
		folder, err := s.repo.FindPublic(ctx)
		if err == nil {
			return folder, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Storage(err)
		}
	}

	folder, err := s.repo.FindByOwnerAndName(ctx, caller.ID, targetName, nil)
	if err == nil {
		return folder, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Storage(err)
	}

	return s.createResolved(ctx, caller, targetName)
}

func (s *FolderService) createResolved(ctx context.Context, caller *models.Identity, targetName string) (*models.Folder, error) {
	departmental := strings.EqualFold(targetName, caller.Department)
	public := strings.EqualFold(targetName, s.publicName)
	folder := &models.Folder{
		Name:         targetName,
		Public:       public,
		Departmental: departmental,
		CreatedBy:    caller.ID,
	}
	if departmental {
		dept := caller.Department
		folder.Department = &dept
	}

	if err := s.repo.Create(ctx, folder); err != nil {
		if errors.Is(err, repository.ErrDuplicateFolder) {
			// A concurrent request won the insert; the lookup now succeeds.
			return s.retryLookup(ctx, caller, targetName)
		}
		return nil, appErrors.Storage(err)
	}
	s.logger.Info("folder created",
		zap.String("folder_id", folder.ID),
		zap.String("name", folder.Name),
		zap.Bool("departmental", folder.Departmental))
	return folder, nil
}

func (s *FolderService) retryLookup(ctx context.Context, caller *models.Identity, targetName string) (*models.Folder, error) {
	if strings.EqualFold(targetName, caller.Department) {
		if folder, err := s.repo.FindDepartmental(ctx, targetName, caller.Department); err == nil {
			return folder, nil
		}
	}
	folder, err := s.repo.FindByOwnerAndName(ctx, caller.ID, targetName, nil)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	return folder, nil
}

// Create handles an explicit folder creation request, rejecting reserved
// names before any write happens.
func (s *FolderService) Create(ctx context.Context, req dto.CreateFolderRequest, caller *models.Identity) (*models.Folder, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid folder payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "folder name is required")
	}

	if strings.EqualFold(name, s.publicName) {
		if _, err := s.repo.FindPublic(ctx); err == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "the public folder name is reserved")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Storage(err)
		}
	}
	if strings.EqualFold(name, caller.Department) {
		if _, err := s.repo.FindDepartmental(ctx, name, caller.Department); err == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "the department folder name is reserved")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Storage(err)
		}
	}

	if _, err := s.repo.FindByOwnerAndName(ctx, caller.ID, name, req.ParentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a folder with this name already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Storage(err)
	}

	folder := &models.Folder{
		Name:         name,
		ParentID:     req.ParentID,
		Departmental: req.Departmental && strings.EqualFold(name, caller.Department),
		CreatedBy:    caller.ID,
	}
	if folder.Departmental {
		dept := caller.Department
		folder.Department = &dept
	}

	if err := s.repo.Create(ctx, folder); err != nil {
		if errors.Is(err, repository.ErrDuplicateFolder) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a folder with this name already exists")
		}
		return nil, appErrors.Storage(err)
	}
	return folder, nil
}

// List returns folders visible to the caller.
func (s *FolderService) List(ctx context.Context, caller *models.Identity) ([]models.Folder, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	folders, err := s.repo.ListVisible(ctx, caller)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	return folders, nil
}

// Retire soft-deletes a personal folder. Shared folders and folders owned by
// someone else are refused; documents keep their folder reference.
func (s *FolderService) Retire(ctx context.Context, id string, caller *models.Identity) error {
	if caller == nil {
		return appErrors.ErrUnauthorized
	}
	folder, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return appErrors.Storage(err)
	}
	if folder.Public || folder.Departmental {
		return appErrors.Clone(appErrors.ErrValidation, "shared folders cannot be retired")
	}
	if folder.CreatedBy != caller.ID && caller.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	if err := s.repo.Retire(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return appErrors.Storage(err)
	}
	s.logger.Info("folder retired", zap.String("folder_id", id), zap.String("actor", caller.ID))
	return nil
}

// Get loads a folder and verifies folder-level visibility.
func (s *FolderService) Get(ctx context.Context, id string, caller *models.Identity) (*models.Folder, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	folder, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return nil, appErrors.Storage(err)
	}
	if !folder.VisibleTo(caller) {
		return nil, appErrors.ErrForbidden
	}
	return folder, nil
}
