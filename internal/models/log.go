package models

import "time"

// Document log actions. One row is written for every state-changing
// operation against a document.
const (
	LogActionUpload        = "upload"
	LogActionUploadVersion = "upload_version"
	LogActionDeleteVersion = "delete_version"
	LogActionAddComment    = "add_comment"
	LogActionDeleteComment = "delete_comment"
	LogActionArchive       = "archive"
	LogActionDelete        = "delete"
)

// DocumentLog is an append-only audit trail entry.
type DocumentLog struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	DocumentID        string    `db:"document_id" json:"document_id"`
	DocumentVersionID *string   `db:"document_version_id" json:"document_version_id,omitempty"`
	Action            string    `db:"action" json:"action"`
	Details           string    `db:"details" json:"details"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// DocumentLogDetail adds the actor name for listings and exports.
type DocumentLogDetail struct {
	DocumentLog
	ActorName string `db:"actor_name" json:"actor_name"`
}
