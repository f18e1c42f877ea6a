package models

import "time"

// DocumentStatus tracks the document lifecycle. Transitions are one-way:
// active → archived, active/archived → hard delete.
type DocumentStatus string

const (
	DocumentStatusActive   DocumentStatus = "active"
	DocumentStatusArchived DocumentStatus = "archived"
	DocumentStatusDraft    DocumentStatus = "draft"
)

// AccessLevel is the ordered permission tier granted by a DocumentAccess row.
type AccessLevel string

const (
	AccessLevelNone   AccessLevel = "none"
	AccessLevelView   AccessLevel = "view"
	AccessLevelEdit   AccessLevel = "edit"
	AccessLevelManage AccessLevel = "manage"
)

// Rank orders access levels: view < edit < manage. Unknown levels rank 0.
func (l AccessLevel) Rank() int {
	switch l {
	case AccessLevelView:
		return 1
	case AccessLevelEdit:
		return 2
	case AccessLevelManage:
		return 3
	default:
		return 0
	}
}

// Document is the core repository entity. CurrentVersionID always references
// a version row belonging to this document; CurrentVersion mirrors that
// row's version number.
type Document struct {
	ID               string         `db:"id" json:"id"`
	Title            string         `db:"title" json:"title"`
	Description      *string        `db:"description" json:"description,omitempty"`
	OriginalFileName *string        `db:"original_file_name" json:"original_file_name,omitempty"`
	Department       *string        `db:"department" json:"department,omitempty"`
	Departmental     bool           `db:"departmental" json:"departmental"`
	Public           bool           `db:"public" json:"public"`
	FolderID         string         `db:"folder_id" json:"folder_id"`
	UploadedBy       string         `db:"uploaded_by" json:"uploaded_by"`
	Status           DocumentStatus `db:"status" json:"status"`
	CurrentVersionID *string        `db:"current_version_id" json:"current_version_id,omitempty"`
	CurrentVersion   int            `db:"current_version" json:"current_version"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// DocumentVersion is one revision of a document's content. The engine stores
// only the external storage reference, never the bytes.
type DocumentVersion struct {
	ID            string    `db:"id" json:"id"`
	DocumentID    string    `db:"document_id" json:"document_id"`
	VersionNumber int       `db:"version_number" json:"version_number"`
	FilePath      string    `db:"file_path" json:"file_path"`
	FileSize      int64     `db:"file_size" json:"file_size"`
	MimeType      string    `db:"mime_type" json:"mime_type"`
	UploadedBy    string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DocumentAccess is an explicit grant scoping access to one user or one
// department. Exactly one of UserID/Department is populated.
type DocumentAccess struct {
	ID          string      `db:"id" json:"id"`
	DocumentID  string      `db:"document_id" json:"document_id"`
	AccessLevel AccessLevel `db:"access_level" json:"access_level"`
	UserID      *string     `db:"user_id" json:"user_id,omitempty"`
	Department  *string     `db:"department" json:"department,omitempty"`
	GrantedBy   string      `db:"granted_by" json:"granted_by"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// DocumentTag is a free-form label attached to a document.
type DocumentTag struct {
	ID         string `db:"id" json:"id"`
	DocumentID string `db:"document_id" json:"document_id"`
	Tag        string `db:"tag" json:"tag"`
}

// DocumentDetail enriches a document row with joined metadata for listings.
type DocumentDetail struct {
	Document
	UploaderName    string           `db:"uploader_name" json:"uploader_name"`
	FolderName      string           `db:"folder_name" json:"folder_name"`
	CurrentFilePath *string          `db:"current_file_path" json:"current_file_path,omitempty"`
	CurrentMimeType *string          `db:"current_mime_type" json:"current_mime_type,omitempty"`
	CurrentFileSize *int64           `db:"current_file_size" json:"current_file_size,omitempty"`
	Tags            []string         `db:"-" json:"tags"`
	Access          []DocumentAccess `db:"-" json:"access"`
}
