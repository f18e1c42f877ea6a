package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents the portal-wide role carried by the identity provider.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Employee is the portal user record the engine reads and whose document
// counter it maintains. Account provisioning and credentials live with the
// identity provider.
type Employee struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	FullName      string    `db:"full_name" json:"full_name"`
	Department    string    `db:"department" json:"department"`
	Role          Role      `db:"role" json:"role"`
	DocumentCount int       `db:"document_count" json:"document_count"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// JWTClaims is the payload of the bearer tokens issued by the external
// identity provider. The engine only verifies and consumes it.
type JWTClaims struct {
	UserID     string `json:"user_id"`
	Department string `json:"department"`
	Role       Role   `json:"role"`
	FullName   string `json:"full_name"`
	jwt.RegisteredClaims
}

// Identity is the caller identity threaded explicitly through every access
// decision and facade operation.
type Identity struct {
	ID         string `json:"id"`
	Department string `json:"department"`
	Role       Role   `json:"role"`
}

// ToIdentity converts verified claims into the engine-facing identity.
func (c *JWTClaims) ToIdentity() *Identity {
	if c == nil {
		return nil
	}
	return &Identity{ID: c.UserID, Department: c.Department, Role: c.Role}
}
