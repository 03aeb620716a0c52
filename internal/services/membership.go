package services

import (
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
)

// VisibleGroupIDs returns every group the user may read or write: groups
// they own plus groups they joined. Every group-scoped read and write is
// bounded by this set.
func VisibleGroupIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var owned []uuid.UUID
	if err := database.DB.Model(&models.FamilyGroup{}).
		Where("owner_id = ?", userID).
		Pluck("id", &owned).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	var joined []uuid.UUID
	if err := database.DB.Model(&models.FamilyMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &joined).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	seen := make(map[uuid.UUID]bool, len(owned)+len(joined))
	ids := make([]uuid.UUID, 0, len(owned)+len(joined))
	for _, id := range append(owned, joined...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// IsGroupMember checks whether a user may act inside a group (owner or member).
func IsGroupMember(groupID, userID uuid.UUID) bool {
	var group models.FamilyGroup
	if err := database.DB.Where("id = ? AND owner_id = ?", groupID, userID).First(&group).Error; err == nil {
		return true
	}
	var member models.FamilyMember
	return database.DB.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error == nil
}
