package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/hide-yama/kireiapp/internal/handlers"
	"github.com/hide-yama/kireiapp/internal/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateMe)
	protected.Post("/me/avatar", handlers.UploadAvatar)
	protected.Get("/users/:id", handlers.GetUserProfile)

	// Family groups
	groups := protected.Group("/groups")
	groups.Get("/", handlers.GetGroups)
	groups.Post("/create", handlers.CreateGroup)
	groups.Post("/join", handlers.JoinGroup)
	groups.Get("/:id", handlers.GetGroup)
	groups.Put("/:id/settings", handlers.UpdateGroupSettings)
	groups.Delete("/:id", handlers.DeleteGroup)
	groups.Get("/:id/members", handlers.GetMembers)
	groups.Delete("/:id/members", handlers.RemoveMember)
	groups.Post("/:id/leave", handlers.LeaveGroup)

	// Feed
	protected.Get("/feed", handlers.GetFeed)

	// Dashboard
	protected.Get("/dashboard/stats", handlers.GetDashboardStats)

	// Posts & interactions
	posts := protected.Group("/posts")
	posts.Post("/", handlers.CreatePost)
	posts.Get("/:id", handlers.GetPost)
	posts.Put("/:id", handlers.UpdatePost)
	posts.Delete("/:id", handlers.DeletePost)
	posts.Post("/:id/like", handlers.LikePost)
	posts.Delete("/:id/like", handlers.UnlikePost)
	posts.Post("/:id/comments", handlers.AddComment)
	posts.Get("/:id/comments", handlers.GetComments)

	protected.Delete("/comments/:id", handlers.DeleteComment)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Get("/count", handlers.GetUnreadCount)
	notifications.Post("/read", handlers.MarkRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// WebSocket for real-time notification delivery
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/notifications", websocket.New(handlers.HandleNotificationSocket))
}
