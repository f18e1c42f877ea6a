package models

import "time"

// DocumentComment is an append-only remark on a document. Deletable only by
// the author, the document owner, or a manage-level grantee.
type DocumentComment struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DocumentCommentDetail adds the author name for listings.
type DocumentCommentDetail struct {
	DocumentComment
	AuthorName string `db:"author_name" json:"author_name"`
}
