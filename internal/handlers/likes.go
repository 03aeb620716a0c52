package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/services"
)

// LikePost handles POST /api/posts/:id/like. Repeats are harmless.
func LikePost(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}

	count, err := services.LikePost(postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "likeCount": count})
}

// UnlikePost handles DELETE /api/posts/:id/like.
func UnlikePost(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}

	count, err := services.UnlikePost(postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "likeCount": count})
}
