package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/service"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
	"github.com/noah-isme/orgportal-api/pkg/response"
)

// FolderHandler handles folder directory endpoints.
type FolderHandler struct {
	folders   *service.FolderService
	documents *service.DocumentService
}

// NewFolderHandler constructs a folder handler.
func NewFolderHandler(folders *service.FolderService, documents *service.DocumentService) *FolderHandler {
	return &FolderHandler{folders: folders, documents: documents}
}

// List godoc
// @Summary List folders visible to the caller
// @Tags Folders
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /folders [get]
func (h *FolderHandler) List(c *gin.Context) {
	folders, err := h.folders.List(c.Request.Context(), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, folders)
}

// Get godoc
// @Summary Get folder by id
// @Tags Folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /folders/{id} [get]
func (h *FolderHandler) Get(c *gin.Context) {
	folder, err := h.folders.Get(c.Request.Context(), c.Param("id"), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, folder)
}

// Create godoc
// @Summary Create a folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param payload body dto.CreateFolderRequest true "Folder payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /folders [post]
func (h *FolderHandler) Create(c *gin.Context) {
	var req dto.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	folder, err := h.folders.Create(c.Request.Context(), req, identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, folder)
}

// Retire godoc
// @Summary Retire a personal folder
// @Tags Folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 204
// @Security BearerAuth
// @Router /folders/{id} [delete]
func (h *FolderHandler) Retire(c *gin.Context) {
	if err := h.folders.Retire(c.Request.Context(), c.Param("id"), identityFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Documents godoc
// @Summary List documents of a folder
// @Tags Folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /folders/{id}/documents [get]
func (h *FolderHandler) Documents(c *gin.Context) {
	listing, err := h.documents.ListFolderDocuments(c.Request.Context(), c.Param("id"), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing)
}
