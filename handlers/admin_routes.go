package handlers

import (
	"errors"

	"crypto-invest-platform/middleware"
	"crypto-invest-platform/models"
	"crypto-invest-platform/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupAdminRoutes registers the back-office surface: manual funding,
// the withdrawal queue, plan management and investment cancellation.
func SetupAdminRoutes(app *fiber.App, plans *services.PlanService, funding *services.FundingService,
	withdrawals *services.WithdrawalService, maturity *services.MaturityService) {

	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	admin.Post("/fund", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		var req services.FundingRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		req.AdminID = adminID

		txn, err := funding.Fund(req)
		if err != nil {
			if errors.Is(err, services.ErrInsufficientFunds) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "transaction": txn})
	})

	admin.Get("/fund", func(c *fiber.Ctx) error {
		txns, err := funding.ListTransactions(c.Query("user_id"), c.QueryInt("limit", 50))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch funding transactions"})
		}
		return c.JSON(txns)
	})

	admin.Get("/withdrawals", func(c *fiber.Ctx) error {
		status := models.WithdrawalStatus(c.Query("status", string(models.WithdrawalStatusPending)))
		list, err := withdrawals.ListByStatus(status, c.QueryInt("limit", 50))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch withdrawals"})
		}
		return c.JSON(list)
	})

	admin.Post("/withdrawals/:id/approve", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)
		var req struct {
			Notes string `json:"notes"`
		}
		_ = c.BodyParser(&req)

		w, err := withdrawals.ApproveWithdrawal(c.Params("id"), adminID, req.Notes)
		if err != nil {
			return withdrawalActionError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "withdrawal": w})
	})

	admin.Post("/withdrawals/:id/reject", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)
		var req struct {
			Notes string `json:"notes"`
		}
		_ = c.BodyParser(&req)

		w, err := withdrawals.RejectWithdrawal(c.Params("id"), adminID, req.Notes)
		if err != nil {
			return withdrawalActionError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "withdrawal": w})
	})

	admin.Post("/investments/:id/cancel", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)
		inv, err := maturity.CancelInvestment(c.Params("id"), adminID)
		if err != nil {
			if errors.Is(err, services.ErrAlreadyProcessed) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "investment is not active"})
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "investment not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to cancel investment"})
		}
		return c.JSON(fiber.Map{"success": true, "investment": inv})
	})

	admin.Get("/plans", func(c *fiber.Ctx) error {
		list, err := plans.ListAllPlans()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch plans"})
		}
		return c.JSON(list)
	})

	admin.Post("/plans", func(c *fiber.Ctx) error {
		var req services.PlanInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		plan, err := plans.CreatePlan(req)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(plan)
	})

	admin.Put("/plans/:id", func(c *fiber.Ctx) error {
		var req services.PlanInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		plan, err := plans.UpdatePlan(c.Params("id"), req)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(plan)
	})

	admin.Patch("/plans/:id/active", func(c *fiber.Ctx) error {
		var req struct {
			IsActive bool `json:"is_active"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		plan, err := plans.SetPlanActive(c.Params("id"), req.IsActive)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "plan not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update plan"})
		}
		return c.JSON(plan)
	})
}

func withdrawalActionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAlreadyProcessed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "withdrawal was already processed"})
	case errors.Is(err, services.ErrInsufficientFunds):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "withdrawal not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to process withdrawal"})
	}
}
