package dto

// CreateFolderRequest creates an explicit folder.
type CreateFolderRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	ParentID     *string `json:"parent_id,omitempty"`
	Departmental bool    `json:"departmental"`
}
