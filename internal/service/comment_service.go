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
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
)

type commentStore interface {
	GetByID(ctx context.Context, id string) (*models.DocumentComment, error)
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentCommentDetail, error)
	Create(ctx context.Context, comment *models.DocumentComment) error
	Delete(ctx context.Context, comment *models.DocumentComment, actorID string) error
}

// CommentService manages the append-only comment ledger on documents.
type CommentService struct {
	comments  commentStore
	docs      documentLookup
	access    accessLister
	resolver  *AccessService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(comments commentStore, docs documentLookup, access accessLister, resolver *AccessService, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewAccessService("")
	}
	return &CommentService{
		comments:  comments,
		docs:      docs,
		access:    access,
		resolver:  resolver,
		validator: validate,
		logger:    logger,
	}
}

// List returns the comments of a document the caller may view, newest first.
func (s *CommentService) List(ctx context.Context, documentID string, caller *models.Identity) ([]models.DocumentCommentDetail, error) {
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
	comments, err := s.comments.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, appErrors.Storage(err)
	}
	return comments, nil
}

// Add appends a comment. Requires comment permission, which is write
// permission plus the admin-department carve-out.
func (s *CommentService) Add(ctx context.Context, documentID string, req dto.AddCommentRequest, caller *models.Identity) (*models.DocumentComment, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload")
	}
	text := strings.TrimSpace(req.Comment)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment must not be empty")
	}

	doc, grants, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.CanComment(doc, grants, caller) {
		return nil, appErrors.ErrForbidden
	}

	comment := &models.DocumentComment{
		DocumentID: documentID,
		UserID:     caller.ID,
		Comment:    text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Storage(err)
	}
	s.logger.Info("comment added",
		zap.String("document_id", documentID),
		zap.String("author", caller.ID))
	return comment, nil
}

// Delete removes a comment. Allowed for the comment author, the document
// owner, or a manage-level grantee.
func (s *CommentService) Delete(ctx context.Context, commentID string, caller *models.Identity) error {
	if caller == nil {
		return appErrors.ErrUnauthorized
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Storage(err)
	}
	doc, grants, err := s.loadDocument(ctx, comment.DocumentID)
	if err != nil {
		return err
	}
	if comment.UserID != caller.ID && !s.resolver.CanModerate(doc, grants, caller) {
		return appErrors.ErrForbidden
	}

	if err := s.comments.Delete(ctx, comment, caller.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Storage(err)
	}
	return nil
}

func (s *CommentService) loadDocument(ctx context.Context, documentID string) (*models.Document, []models.DocumentAccess, error) {
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
