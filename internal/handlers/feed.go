package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/services"
)

// GetFeed serves the denormalized feed page:
// GET /api/feed?groups=<csv>&categories=<csv>&page=&limit=
func GetFeed(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(services.DefaultFeedLimit)))

	query := services.FeedQuery{Page: page, Limit: limit}

	if raw := c.Query("groups"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "グループIDが正しくありません",
				})
			}
			query.GroupIDs = append(query.GroupIDs, id)
		}
	}

	if raw := c.Query("categories"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Categories = append(query.Categories, part)
			}
		}
	}

	result, err := services.GetFeed(userID, query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
