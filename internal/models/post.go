package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxPostBody   = 1000
	MaxPostImages = 4
)

type Post struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID `json:"group_id" gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	Category  string    `json:"category" gorm:"not null"`
	Place     *string   `json:"place"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Images []PostImage `json:"post_images,omitempty" gorm:"foreignKey:PostID"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PostCategories are the chore categories a post must carry.
var PostCategories = []string{"料理", "掃除", "洗濯", "買い物", "その他"}

func IsValidCategory(category string) bool {
	for _, c := range PostCategories {
		if c == category {
			return true
		}
	}
	return false
}

type UpdatePostRequest struct {
	Body     string  `json:"body"`
	Category string  `json:"category"`
	Place    *string `json:"place"`
}
