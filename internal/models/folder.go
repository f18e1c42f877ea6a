package models

import "time"

// FolderStatus tracks the folder lifecycle.
type FolderStatus string

const (
	FolderStatusActive  FolderStatus = "active"
	FolderStatusRetired FolderStatus = "retired"
)

// PublicFolderName is the reserved name of the singleton public folder.
const PublicFolderName = "public"

// Folder is a named hierarchical container for documents. Visibility is
// derived from Public/Departmental/Department/CreatedBy at creation time and
// only changes by explicit edit.
type Folder struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	ParentID     *string      `db:"parent_id" json:"parent_id,omitempty"`
	Department   *string      `db:"department" json:"department,omitempty"`
	Public       bool         `db:"public" json:"public"`
	Departmental bool         `db:"departmental" json:"departmental"`
	Root         bool         `db:"root" json:"root"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	Status       FolderStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// VisibleTo reports whether the caller may open the folder: owner,
// department match on a departmental folder, or the public folder.
func (f *Folder) VisibleTo(caller *Identity) bool {
	if f == nil || caller == nil {
		return false
	}
	if f.Public {
		return true
	}
	if f.Departmental && f.Department != nil && *f.Department == caller.Department {
		return true
	}
	return f.CreatedBy == caller.ID
}
