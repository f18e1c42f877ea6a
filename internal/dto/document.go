package dto

import "github.com/noah-isme/orgportal-api/internal/models"

// UploadFileMeta describes one externally stored file submitted with an
// upload. The object store collaborator has already persisted the bytes and
// returned the stable path.
type UploadFileMeta struct {
	FileName string `json:"file_name" validate:"required"`
	FilePath string `json:"file_path" validate:"required"`
	FileSize int64  `json:"file_size" validate:"gte=0"`
	MimeType string `json:"mime_type"`
}

// UploadDocumentsRequest is the payload for the bulk upload operation. One
// document is created per file; titles get an index suffix when more than
// one file is submitted.
type UploadDocumentsRequest struct {
	Title        string               `json:"title" validate:"required,max=255"`
	Description  *string              `json:"description,omitempty"`
	Folder       string               `json:"folder" validate:"required,max=255"`
	Departmental bool                 `json:"departmental"`
	Public       bool                 `json:"public"`
	Files        []UploadFileMeta     `json:"files" validate:"required,min=1,dive"`
	Tags         []string             `json:"tags,omitempty"`
	Permissions  []models.AccessLevel `json:"permissions,omitempty"`
}

// AddVersionRequest submits a new content revision for an existing document.
type AddVersionRequest struct {
	FileName string `json:"file_name" validate:"required"`
	FilePath string `json:"file_path" validate:"required"`
	FileSize int64  `json:"file_size" validate:"gte=0"`
	MimeType string `json:"mime_type"`
}

// GrantAccessRequest shares a document with a single user or a whole
// department at the given level. Exactly one target must be set.
type GrantAccessRequest struct {
	AccessLevel models.AccessLevel `json:"access_level" validate:"required,oneof=view edit manage"`
	UserID      *string            `json:"user_id,omitempty"`
	Department  *string            `json:"department,omitempty"`
}

// FolderDocumentsResponse bundles the filtered listing with its count.
type FolderDocumentsResponse struct {
	Documents []models.DocumentDetail `json:"documents"`
	Count     int                     `json:"count"`
}
