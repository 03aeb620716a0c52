package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostImage struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PostID      uuid.UUID `json:"post_id" gorm:"type:uuid;index;not null"`
	StoragePath string    `json:"storage_path" gorm:"not null"`
	Position    int       `json:"position" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`

	// URL is resolved from StoragePath at read time, never persisted.
	URL string `json:"url" gorm:"-"`
}

func (i *PostImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
