package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/service"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
	"github.com/noah-isme/orgportal-api/pkg/response"
)

// VersionHandler handles document version endpoints.
type VersionHandler struct {
	versions *service.VersionService
}

// NewVersionHandler constructs a version handler.
func NewVersionHandler(versions *service.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

// List godoc
// @Summary List versions of a document
// @Tags Versions
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id}/versions [get]
func (h *VersionHandler) List(c *gin.Context) {
	versions, err := h.versions.List(c.Request.Context(), c.Param("id"), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions)
}

// Add godoc
// @Summary Add a new version to a document
// @Tags Versions
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.AddVersionRequest true "Version payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id}/versions [post]
func (h *VersionHandler) Add(c *gin.Context) {
	var req dto.AddVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	version, err := h.versions.Add(c.Request.Context(), c.Param("id"), req, identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// Delete godoc
// @Summary Delete a non-current version
// @Tags Versions
// @Produce json
// @Param versionId path string true "Version ID"
// @Success 204
// @Security BearerAuth
// @Router /documents/versions/{versionId} [delete]
func (h *VersionHandler) Delete(c *gin.Context) {
	if err := h.versions.Delete(c.Request.Context(), c.Param("versionId"), identityFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
