package dto

import "github.com/noah-isme/orgportal-api/internal/models"

// CreateExportRequest enqueues a document activity export.
type CreateExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse enriches job metadata with a signed download URL once
// the render has finished.
type ExportJobResponse struct {
	models.ExportJob
	DownloadURL *string `json:"download_url,omitempty"`
}
