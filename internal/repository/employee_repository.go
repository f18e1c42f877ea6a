package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/orgportal-api/internal/models"
)

// EmployeeRepository reads portal user records. Provisioning is owned by the
// identity provider; the engine only reads rows and maintains the per-user
// document counter.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// GetByID retrieves one employee row.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	const query = `SELECT id, email, full_name, department, role, document_count, active, created_at, updated_at
	FROM employees WHERE id = $1`
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, err
	}
	return &employee, nil
}

// IncrementDocumentCount bumps the counter atomically at the store level.
func (r *EmployeeRepository) IncrementDocumentCount(ctx context.Context, id string, delta int) error {
	const query = `UPDATE employees SET document_count = document_count + $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment document count: %w", err)
	}
	return nil
}
