package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Index describes the service.
func Index(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":   "transcript-server",
		"status": "ok",
		"endpoints": []string{
			"/transcript",
			"/transcript/available",
			"/transcribe",
			"/transcribe-local",
			"/health",
		},
	})
}
