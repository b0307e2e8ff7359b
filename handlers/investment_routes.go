package handlers

import (
	"errors"

	"crypto-invest-platform/middleware"
	"crypto-invest-platform/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SetupInvestmentRoutes registers the plan catalog and the investment
// portfolio surface. POST /investments is the deposit-approval
// collaborator's entry point.
func SetupInvestmentRoutes(app *fiber.App, plans *services.PlanService, investments *services.InvestmentService, ledger *services.LedgerService) {
	app.Get("/plans", func(c *fiber.Ctx) error {
		list, err := plans.ListActivePlans()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch plans"})
		}
		return c.JSON(list)
	})

	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/investments", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			PlanID     string          `json:"plan_id"`
			Amount     decimal.Decimal `json:"amount"`
			CryptoType string          `json:"crypto_type"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		inv, err := investments.CreateInvestment(services.CreateInvestmentInput{
			UserID:     userID,
			PlanID:     req.PlanID,
			Amount:     req.Amount,
			CryptoType: req.CryptoType,
		})
		if err != nil {
			if errors.Is(err, services.ErrInvestmentCap) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(inv)
	})

	secured.Get("/investments", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		list, err := investments.ListUserInvestments(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch investments"})
		}
		return c.JSON(list)
	})

	secured.Get("/investments/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		inv, err := investments.GetInvestment(c.Params("id"), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "investment not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(inv)
	})

	secured.Get("/investments/:id/accruals", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		records, err := investments.AccrualHistory(c.Params("id"), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "investment not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(records)
	})

	secured.Get("/ledger", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		agg, err := ledger.GetLedger(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch ledger"})
		}
		entries, err := ledger.ListEntries(userID, c.QueryInt("limit", 50))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch ledger entries"})
		}
		return c.JSON(fiber.Map{"ledger": agg, "entries": entries})
	})
}
