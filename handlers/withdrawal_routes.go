package handlers

import (
	"errors"
	"time"

	"crypto-invest-platform/middleware"
	"crypto-invest-platform/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SetupWithdrawalRoutes registers the user-facing withdrawal surface:
// the eligibility query and the request intake.
func SetupWithdrawalRoutes(app *fiber.App, eligibility *services.EligibilityService, withdrawals *services.WithdrawalService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/withdrawals/eligibility", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var investmentID *string
		if id := c.Query("investment_id"); id != "" {
			investmentID = &id
		}

		result, err := eligibility.CheckEligibility(userID, investmentID, time.Now())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(result)
	})

	secured.Post("/withdrawals", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Amount        decimal.Decimal `json:"amount"`
			CryptoType    string          `json:"crypto_type"`
			WalletAddress string          `json:"wallet_address"`
			InvestmentID  *string         `json:"investment_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		w, err := withdrawals.RequestWithdrawal(services.WithdrawalRequestInput{
			UserID:        userID,
			Amount:        req.Amount,
			CryptoType:    req.CryptoType,
			WalletAddress: req.WalletAddress,
			InvestmentID:  req.InvestmentID,
		})
		if err != nil {
			if errors.Is(err, services.ErrInsufficientFunds) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(w)
	})

	secured.Get("/withdrawals", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		list, err := withdrawals.ListUserWithdrawals(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch withdrawals"})
		}
		return c.JSON(list)
	})
}
