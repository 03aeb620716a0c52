package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
	"gorm.io/gorm"
)

// EnsureProfile returns the user's profile, creating it on first
// authenticated access if absent.
func EnsureProfile(userID uuid.UUID, fallbackNickname string) (*models.Profile, error) {
	var profile models.Profile
	err := database.DB.First(&profile, "id = ?", userID).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Transient(err)
	}

	if fallbackNickname == "" {
		fallbackNickname = "User"
	}
	profile = models.Profile{ID: userID, Nickname: fallbackNickname}
	if err := database.DB.Create(&profile).Error; err != nil {
		// Lost a creation race with a concurrent first request.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := database.DB.First(&profile, "id = ?", userID).Error; err == nil {
				return &profile, nil
			}
		}
		return nil, apperr.Transient(err)
	}
	return &profile, nil
}
