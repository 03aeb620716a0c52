package models

import (
	"time"

	"github.com/google/uuid"
)

// Like rows are keyed by (post_id, user_id); the composite primary key is
// the uniqueness constraint that makes the like toggle idempotent under
// concurrent submission.
type Like struct {
	PostID    uuid.UUID `json:"post_id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}
