package dto

// AddCommentRequest submits one remark on a document.
type AddCommentRequest struct {
	Comment string `json:"comment" validate:"required,max=4000"`
}
