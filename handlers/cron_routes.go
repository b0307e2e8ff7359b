package handlers

import (
	"time"

	"crypto-invest-platform/middleware"
	"crypto-invest-platform/services"

	"github.com/gofiber/fiber/v2"
)

// SetupCronRoutes registers the externally scheduled batch triggers.
// Both endpoints are idempotent by construction, so the scheduler, a
// manual retrigger and a retried timed-out request can all race safely.
// The GET variants exist for manual testing and delegate to the same
// handlers.
func SetupCronRoutes(app *fiber.App, accrual *services.AccrualService, maturity *services.MaturityService) {
	cron := app.Group("/cron", middleware.CronAuthMiddleware())

	cron.Post("/daily-profits", dailyProfitsHandler(accrual))
	cron.Get("/daily-profits", dailyProfitsHandler(accrual))

	cron.Post("/investment-maturity", investmentMaturityHandler(maturity))
	cron.Get("/investment-maturity", investmentMaturityHandler(maturity))
}

func dailyProfitsHandler(accrual *services.AccrualService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := accrual.RunDailyAccrual(time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		if len(result.Failed) > 0 {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   fiber.Map{"failed": result.Failed, "processed": result.Processed, "skipped": result.Skipped},
			})
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"message":   "Daily profits distributed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func investmentMaturityHandler(maturity *services.MaturityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := maturity.ProcessMaturity(time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":     "maturity batch failed",
				"details":   err.Error(),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		}
		if len(result.Errors) > 0 {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":     "maturity batch completed with errors",
				"details":   result.Errors,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"data":      result,
			"processed": result.MaturedCount,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
