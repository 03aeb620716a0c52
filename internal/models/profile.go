package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the member-visible identity. Its ID equals the owning
// User's ID; the row is created lazily on first authenticated access.
type Profile struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Nickname  string    `json:"nickname" gorm:"not null"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Nickname *string `json:"nickname"`
}
