package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/orgportal-api/internal/models"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
)

type employeeStore interface {
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	IncrementDocumentCount(ctx context.Context, id string, delta int) error
}

// EmployeeService exposes the portal user profile. Account management lives
// with the identity provider; the engine only reads rows and maintains the
// document counter.
type EmployeeService struct {
	repo employeeStore
}

// NewEmployeeService constructs the service.
func NewEmployeeService(repo employeeStore) *EmployeeService {
	return &EmployeeService{repo: repo}
}

// Profile returns the caller's own employee record, including the document
// counter.
func (s *EmployeeService) Profile(ctx context.Context, caller *models.Identity) (*models.Employee, error) {
	if caller == nil {
		return nil, appErrors.ErrUnauthorized
	}
	employee, err := s.repo.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Storage(err)
	}
	return employee, nil
}
