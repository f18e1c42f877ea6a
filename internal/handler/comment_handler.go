package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/orgportal-api/internal/dto"
	"github.com/noah-isme/orgportal-api/internal/service"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
	"github.com/noah-isme/orgportal-api/pkg/response"
)

// CommentHandler handles document comment endpoints.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler constructs a comment handler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// List godoc
// @Summary List comments on a document
// @Tags Comments
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id}/comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context(), c.Param("id"), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments)
}

// Add godoc
// @Summary Add a comment to a document
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.AddCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /documents/{id}/comments [post]
func (h *CommentHandler) Add(c *gin.Context) {
	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	comment, err := h.comments.Add(c.Request.Context(), c.Param("id"), req, identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Delete godoc
// @Summary Delete a comment
// @Tags Comments
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 204
// @Security BearerAuth
// @Router /documents/comments/{commentId} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), c.Param("commentId"), identityFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
