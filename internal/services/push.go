package services

import (
	"context"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
	"google.golang.org/api/option"
)

// PushService mirrors stored notification rows to FCM for mobile clients.
type PushService struct {
	client *messaging.Client
}

// Global push service instance
var Push *PushService

// InitPush initializes the FCM client. Without a service account the
// service stays up with push disabled (dev mode).
func InitPush(serviceAccountPath string) error {
	if serviceAccountPath == "" {
		log.Println("FCM: no service account configured, push disabled")
		Push = &PushService{}
		return nil
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		log.Printf("FCM: firebase init failed, push disabled: %v", err)
		Push = &PushService{}
		return nil
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("FCM: messaging client failed, push disabled: %v", err)
		Push = &PushService{}
		return nil
	}

	Push = &PushService{client: client}
	log.Println("FCM: push enabled")
	return nil
}

// SendNotification pushes one stored notification to its recipient's
// registered device. No-op without a client or a token.
func (p *PushService) SendNotification(n *models.Notification) {
	if p.client == nil {
		return
	}

	var user models.User
	if err := database.DB.Select("fcm_token").First(&user, "id = ?", n.UserID).Error; err != nil {
		return
	}
	if user.FCMToken == "" {
		return
	}

	title, body := pushContent(n)
	msg := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{"type": n.Type},
	}
	if n.PostID != nil {
		msg.Data["postId"] = n.PostID.String()
	}

	if _, err := p.client.Send(context.Background(), msg); err != nil {
		log.Printf("FCM: send to user %s: %v", n.UserID, err)
	}
}

// pushContent builds the localized push text for a notification row.
func pushContent(n *models.Notification) (string, string) {
	name := "メンバー"
	if n.FromUserID != nil {
		var profile models.Profile
		if err := database.DB.First(&profile, "id = ?", *n.FromUserID).Error; err == nil && profile.Nickname != "" {
			name = profile.Nickname
		}
	}

	switch n.Type {
	case models.NotificationTypeComment:
		return "新しいコメント", name + "さんがあなたの投稿にコメントしました"
	default:
		return "新しいいいね", name + "さんがあなたの投稿にいいねしました"
	}
}
