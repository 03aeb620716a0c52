package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/models"
	"github.com/hide-yama/kireiapp/internal/services"
)

// AddComment handles POST /api/posts/:id/comments.
func AddComment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}

	var req models.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "リクエストの形式が正しくありません",
		})
	}

	comment, err := services.CreateComment(postID, userID, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "comment": comment})
}

// GetComments returns a post's live comments, oldest first.
func GetComments(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}

	comments, err := services.GetComments(postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "comments": comments})
}

// DeleteComment handles DELETE /api/comments/:id (author only, soft).
func DeleteComment(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	commentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.ErrCommentNotFound)
	}

	if err := services.DeleteComment(commentID, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
