package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/models"
	"github.com/hide-yama/kireiapp/internal/services"
)

// GetMembers lists a group's members; visible to any member.
func GetMembers(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "グループIDが正しくありません",
		})
	}

	if !services.IsGroupMember(groupID, userID) {
		return respondError(c, apperr.ErrGroupNotFound)
	}

	var members []models.FamilyMember
	if err := database.DB.Where("group_id = ?", groupID).
		Preload("Profile").
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}

	result := make([]models.MemberInfo, len(members))
	for i, m := range members {
		result[i] = models.MemberInfo{
			UserID:    m.UserID,
			Nickname:  m.Profile.Nickname,
			AvatarURL: m.Profile.AvatarURL,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
		}
	}

	return c.JSON(result)
}

// RemoveMember removes a member from a group (owner only). The owner's
// own membership row is immovable while the group exists.
func RemoveMember(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "グループIDが正しくありません",
		})
	}

	var group models.FamilyGroup
	if err := database.DB.Where("id = ? AND owner_id = ?", groupID, userID).First(&group).Error; err != nil {
		return respondError(c, apperr.ErrGroupNotFound)
	}

	var req models.RemoveMemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ユーザーIDは必須です",
		})
	}

	if req.UserID == group.OwnerID {
		return respondError(c, apperr.ErrOwnerImmovable)
	}

	result := database.DB.Where("group_id = ? AND user_id = ?", groupID, req.UserID).Delete(&models.FamilyMember{})
	if result.Error != nil {
		return respondError(c, apperr.Transient(result.Error))
	}
	if result.RowsAffected == 0 {
		return respondError(c, apperr.ErrMemberNotFound)
	}

	return c.JSON(fiber.Map{"success": true})
}

// LeaveGroup lets a non-owner member leave.
func LeaveGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "グループIDが正しくありません",
		})
	}

	var group models.FamilyGroup
	if err := database.DB.First(&group, "id = ?", groupID).Error; err != nil {
		return respondError(c, apperr.ErrGroupNotFound)
	}

	if group.OwnerID == userID {
		return respondError(c, apperr.ErrOwnerImmovable)
	}

	result := database.DB.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.FamilyMember{})
	if result.Error != nil {
		return respondError(c, apperr.Transient(result.Error))
	}
	if result.RowsAffected == 0 {
		return respondError(c, apperr.ErrMemberNotFound)
	}

	return c.JSON(fiber.Map{"success": true})
}
