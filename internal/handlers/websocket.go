package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/services"
)

// WebSocketUpgrade is the middleware that checks the upgrade request and
// validates the JWT before the protocol switch.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "認証が必要です",
			})
		}

		claims, err := middleware.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "トークンが無効か期限切れです",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// HandleNotificationSocket serves one client's notification stream. The
// current unread count is pushed immediately on connect so a client never
// has to poll after reconnecting.
func HandleNotificationSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := services.WS.Register(userID, c)
	defer services.WS.Unregister(userID, conn)

	if count, err := services.UnreadCount(userID); err == nil {
		conn.Send(services.NotificationEvent{
			Type:        services.EventUnreadCount,
			UnreadCount: count,
		})
	}

	// Keep connection alive: read messages (client sends pings/keepalives)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
