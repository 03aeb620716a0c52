package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/hide-yama/kireiapp/internal/apperr"
)

// respondError maps an error from the service layer onto an HTTP response.
// Store failures are logged server-side; the client only ever sees the
// localized message.
func respondError(c *fiber.Ctx, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Err != nil || ae.Status >= fiber.StatusInternalServerError {
			log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(ae.Status).JSON(fiber.Map{"error": ae.Message})
	}

	log.Printf("%s %s: unexpected error: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "サーバーエラーが発生しました",
	})
}
