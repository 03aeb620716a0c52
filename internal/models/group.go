package models

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxGroupMembers caps a group's size, owner included.
const MaxGroupMembers = 20

type FamilyGroup struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string    `json:"name" gorm:"not null"`
	AvatarURL      string    `json:"avatar_url"`
	InvitationCode string    `json:"invitation_code" gorm:"uniqueIndex;not null"`
	OwnerID        uuid.UUID `json:"owner_id" gorm:"type:uuid;index;not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Members []FamilyMember `json:"members,omitempty" gorm:"foreignKey:GroupID"`
}

func (g *FamilyGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.InvitationCode == "" {
		g.InvitationCode = GenerateInvitationCode()
	}
	return nil
}

const invitationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateInvitationCode returns an 8-character alphanumeric join token.
func GenerateInvitationCode() string {
	b := make([]byte, 8)
	rand.Read(b)
	for i := range b {
		b[i] = invitationAlphabet[int(b[i])%len(invitationAlphabet)]
	}
	return string(b)
}

// Group DTOs
type CreateGroupRequest struct {
	Name string `json:"name"`
}

type JoinGroupRequest struct {
	InvitationCode string `json:"invitation_code"`
}

type UpdateGroupSettingsRequest struct {
	Action string  `json:"action"` // regenerate_code
	Name   *string `json:"name"`
}

type RemoveMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type GroupSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	AvatarURL      string    `json:"avatar_url"`
	InvitationCode string    `json:"invitation_code,omitempty"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Role           string    `json:"role"`
	MemberCount    int64     `json:"member_count"`
}
