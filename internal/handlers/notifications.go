package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/models"
	"github.com/hide-yama/kireiapp/internal/services"
)

// GetNotifications lists the caller's notifications, newest first, with
// sender and post context preloaded.
func GetNotifications(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	var total int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}

	var notifications []models.Notification
	if err := database.DB.Where("user_id = ?", userID).
		Preload("FromUser").
		Preload("Post").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&notifications).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}

	unread, err := services.UnreadCount(userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"total":         total,
		"unreadCount":   unread,
		"page":          page,
		"limit":         limit,
	})
}

// GetUnreadCount returns only the unread aggregate, for badge polling.
func GetUnreadCount(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	count, err := services.UnreadCount(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unreadCount": count})
}

// MarkRead marks one notification (notificationId) or all (markAll) read.
func MarkRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "リクエストの形式が正しくありません",
		})
	}

	if req.MarkAll {
		if err := services.MarkAllNotificationsRead(userID); err != nil {
			return respondError(c, err)
		}
	} else {
		if req.NotificationID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "notificationIdまたはmarkAllを指定してください",
			})
		}
		if err := services.MarkNotificationRead(*req.NotificationID, userID); err != nil {
			return respondError(c, err)
		}
	}

	count, err := services.UnreadCount(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "unreadCount": count})
}

// RegisterDeviceToken stores the caller's FCM registration token.
func RegisterDeviceToken(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "トークンは必須です",
		})
	}

	if err := database.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("fcm_token", req.Token).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}

	return c.JSON(fiber.Map{"success": true})
}
