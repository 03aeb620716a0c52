package services

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
	"gorm.io/gorm"
)

// NotifyInteraction records a notification for the post owner and pushes
// the new unread state to their connected clients.
//
// Delivery is deliberately best-effort and outside the interaction's
// transaction: the like or comment has already committed, and a failed
// notification write is logged, not propagated. Do not tighten this into
// strict atomicity without revisiting that contract.
func NotifyInteraction(recipientID uuid.UUID, notifType string, postID, fromUserID uuid.UUID) {
	if recipientID == fromUserID {
		return
	}

	notif := models.Notification{
		UserID:     recipientID,
		Type:       notifType,
		PostID:     &postID,
		FromUserID: &fromUserID,
	}
	if err := database.DB.Create(&notif).Error; err != nil {
		log.Printf("notify: failed to record %s notification for %s: %v", notifType, recipientID, err)
		return
	}

	publishUnread(recipientID, EventNotificationCreated, &notif)

	if Push != nil {
		go Push.SendNotification(&notif)
	}
}

// UnreadCount is recomputed from rows on every call; there is no cached
// counter to race against concurrent mark-reads.
func UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, apperr.Transient(err)
	}
	return count, nil
}

// MarkNotificationRead sets the read flag once. Re-marking a read
// notification is a no-op; another user's notification is a 403.
func MarkNotificationRead(notificationID, userID uuid.UUID) error {
	var notif models.Notification
	if err := database.DB.First(&notif, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotificationNotFound
		}
		return apperr.Transient(err)
	}
	if notif.UserID != userID {
		return apperr.ErrNotificationOwner
	}
	if notif.Read {
		return nil
	}

	if err := database.DB.Model(&notif).Update("read", true).Error; err != nil {
		return apperr.Transient(err)
	}
	publishUnread(userID, EventNotificationsRead, nil)
	return nil
}

func MarkAllNotificationsRead(userID uuid.UUID) error {
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error; err != nil {
		return apperr.Transient(err)
	}
	publishUnread(userID, EventNotificationsRead, nil)
	return nil
}

func publishUnread(userID uuid.UUID, eventType string, notif *models.Notification) {
	count, err := UnreadCount(userID)
	if err != nil {
		log.Printf("notify: unread recount for %s: %v", userID, err)
		return
	}
	WS.Publish(userID, NotificationEvent{
		Type:         eventType,
		Notification: notif,
		UnreadCount:  count,
	})
}
