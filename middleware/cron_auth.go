package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CronAuthMiddleware validates the bearer secret on the batch-trigger
// endpoints. The secret is read per request rather than at startup: a
// missing secret is a configuration error that must answer 500 without
// attempting the batch, not crash the whole service.
func CronAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := os.Getenv("CRON_SECRET")
		if expected == "" {
			log.Printf("[CRON_AUTH] CRON_SECRET is not configured; refusing %s", c.Path())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "cron secret is not configured",
			})
		}

		authHeader := c.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || token != expected {
			log.Printf("[CRON_AUTH] rejected trigger for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing cron authorization token",
			})
		}

		return c.Next()
	}
}
