package structure

import "time"

// MediaParentType identifies the kind of record a media object is attached to
type MediaParentType string

const (
	MediaParentRepository MediaParentType = "repository"
	MediaParentProject    MediaParentType = "project"
	MediaParentUser       MediaParentType = "user"
)

// Media is an uploaded image or attachment stored in the blob store
type Media struct {
	ID         string          `json:"id" db:"id"`
	ParentID   string          `json:"parent_id" db:"parent_id"`
	ParentType MediaParentType `json:"parent_type" db:"parent_type"`
	Name       string          `json:"name" db:"name"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
