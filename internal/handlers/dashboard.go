package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/services"
)

// GetDashboardStats serves the home-screen activity summary.
func GetDashboardStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	stats, err := services.GetDashboardStats(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
