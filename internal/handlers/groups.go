package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/models"
	"github.com/hide-yama/kireiapp/internal/services"
	"github.com/hide-yama/kireiapp/internal/storage"
	"gorm.io/gorm"
)

// CreateGroup creates a group and its owner membership in one transaction.
func CreateGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "リクエストの形式が正しくありません",
		})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "グループ名は必須です",
		})
	}

	group := models.FamilyGroup{Name: name, OwnerID: userID}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		member := models.FamilyMember{
			GroupID: group.ID,
			UserID:  userID,
			Role:    models.RoleOwner,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return respondError(c, apperr.Transient(err))
	}

	return c.Status(fiber.StatusCreated).JSON(group)
}

// JoinGroup adds the caller to a group via its invitation code.
func JoinGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.JoinGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "リクエストの形式が正しくありません",
		})
	}

	code := strings.ToUpper(strings.TrimSpace(req.InvitationCode))
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "招待コードは必須です",
		})
	}

	var group models.FamilyGroup
	if err := database.DB.Where("invitation_code = ?", code).First(&group).Error; err != nil {
		return respondError(c, apperr.ErrInvalidInvite)
	}

	var existing models.FamilyMember
	if err := database.DB.Where("group_id = ? AND user_id = ?", group.ID, userID).First(&existing).Error; err == nil {
		return respondError(c, apperr.ErrAlreadyMember)
	}

	// Count and insert share a transaction so two concurrent joins at the
	// cap cannot both pass the check.
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var memberCount int64
		if err := tx.Model(&models.FamilyMember{}).
			Where("group_id = ?", group.ID).
			Count(&memberCount).Error; err != nil {
			return apperr.Transient(err)
		}
		if memberCount >= models.MaxGroupMembers {
			return apperr.ErrGroupFull
		}

		member := models.FamilyMember{
			GroupID: group.ID,
			UserID:  userID,
			Role:    models.RoleMember,
		}
		if err := tx.Create(&member).Error; err != nil {
			return apperr.Transient(err)
		}
		return nil
	})
	if txErr != nil {
		return respondError(c, txErr)
	}

	return c.JSON(fiber.Map{"group": group})
}

// GetGroups lists the caller's groups with role and member count. Groups
// and counts are fetched in one query each, not one per membership.
func GetGroups(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var memberships []models.FamilyMember
	if err := database.DB.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}
	if len(memberships) == 0 {
		return c.JSON([]models.GroupSummary{})
	}

	groupIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
	}

	var groups []models.FamilyGroup
	if err := database.DB.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}
	groupByID := make(map[uuid.UUID]models.FamilyGroup, len(groups))
	for _, g := range groups {
		groupByID[g.ID] = g
	}

	var countRows []struct {
		GroupID uuid.UUID
		N       int64
	}
	if err := database.DB.Model(&models.FamilyMember{}).
		Select("group_id, COUNT(*) AS n").
		Where("group_id IN ?", groupIDs).
		Group("group_id").
		Scan(&countRows).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}
	countByGroup := make(map[uuid.UUID]int64, len(countRows))
	for _, r := range countRows {
		countByGroup[r.GroupID] = r.N
	}

	summaries := make([]models.GroupSummary, 0, len(memberships))
	for _, m := range memberships {
		group, ok := groupByID[m.GroupID]
		if !ok {
			continue
		}

		s := models.GroupSummary{
			ID:          group.ID,
			Name:        group.Name,
			AvatarURL:   group.AvatarURL,
			OwnerID:     group.OwnerID,
			Role:        m.Role,
			MemberCount: countByGroup[group.ID],
		}
		// The invitation code is only shown to the owner.
		if m.Role == models.RoleOwner {
			s.InvitationCode = group.InvitationCode
		}
		summaries = append(summaries, s)
	}

	return c.JSON(summaries)
}

func GetGroup(c *fiber.Ctx) error {
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

	var group models.FamilyGroup
	if err := database.DB.Preload("Members.Profile").First(&group, "id = ?", groupID).Error; err != nil {
		return respondError(c, apperr.ErrGroupNotFound)
	}

	if group.OwnerID != userID {
		group.InvitationCode = ""
	}
	return c.JSON(group)
}

// UpdateGroupSettings handles owner-only settings actions; today that is
// renaming and invitation-code regeneration.
func UpdateGroupSettings(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "グループIDが正しくありません",
		})
	}

	var group models.FamilyGroup
	if err := database.DB.Where("id = ? AND owner_id = ?", groupID, userID).First(&group).Error; err != nil {
		// Indistinguishable from a missing group on purpose.
		return respondError(c, apperr.ErrGroupNotFound)
	}

	var req models.UpdateGroupSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "リクエストの形式が正しくありません",
		})
	}

	switch req.Action {
	case "regenerate_code":
		newCode := models.GenerateInvitationCode()
		if err := database.DB.Model(&group).Update("invitation_code", newCode).Error; err != nil {
			return respondError(c, apperr.Transient(err))
		}
		return c.JSON(fiber.Map{"invitation_code": newCode})

	case "rename":
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "グループ名は必須です",
			})
		}
		name := strings.TrimSpace(*req.Name)
		if err := database.DB.Model(&group).Update("name", name).Error; err != nil {
			return respondError(c, apperr.Transient(err))
		}
		group.Name = name
		return c.JSON(group)

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "無効なアクションです",
		})
	}
}

// DeleteGroup removes the group and everything scoped to it, blobs last.
func DeleteGroup(c *fiber.Ctx) error {
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

	var postIDs []uuid.UUID
	if err := database.DB.Model(&models.Post{}).Where("group_id = ?", groupID).Pluck("id", &postIDs).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}

	var blobPaths []string
	if len(postIDs) > 0 {
		database.DB.Model(&models.PostImage{}).Where("post_id IN ?", postIDs).Pluck("storage_path", &blobPaths)
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostImage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Like{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.FamilyMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
	if txErr != nil {
		return respondError(c, apperr.Transient(txErr))
	}

	storage.Remove(blobPaths...)
	return c.JSON(fiber.Map{"success": true})
}
