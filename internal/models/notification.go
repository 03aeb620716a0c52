package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypePost    = "post"
)

// Notification rows are written by the fan-out path only, never by their
// recipient. Read transitions once and stays set.
type Notification struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `json:"user_id" gorm:"type:uuid;index;not null"`
	Type       string     `json:"type" gorm:"not null"`
	PostID     *uuid.UUID `json:"post_id" gorm:"type:uuid"`
	FromUserID *uuid.UUID `json:"from_user_id" gorm:"type:uuid"`
	Read       bool       `json:"read" gorm:"not null;default:false"`
	CreatedAt  time.Time  `json:"created_at"`

	FromUser *Profile `json:"from_user,omitempty" gorm:"foreignKey:FromUserID"`
	Post     *Post    `json:"post,omitempty" gorm:"foreignKey:PostID"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type MarkReadRequest struct {
	NotificationID *uuid.UUID `json:"notificationId"`
	MarkAll        bool       `json:"markAll"`
}
