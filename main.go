package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"crypto-invest-platform/handlers"
	"crypto-invest-platform/models"
	"crypto-invest-platform/services"
	"crypto-invest-platform/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		AppName: "crypto-invest-platform",
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("ALLOWED_ORIGINS not set, defaulting to http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-User-ID, X-User-Roles, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.InvestmentPlan{},
		&models.Investment{},
		&models.AccrualRecord{},
		&models.MaturityEvent{},
		&models.UserLedger{},
		&models.LedgerEntry{},
		&models.Withdrawal{},
		&models.AdminFundingTransaction{},
		&models.Notification{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ledgerService := services.NewLedgerService(db)
	planService := services.NewPlanService(db)
	investmentService := services.NewInvestmentService(db, ledgerService)
	accrualService := services.NewAccrualService(db)
	maturityService := services.NewMaturityService(db, accrualService, ledgerService)
	eligibilityService := services.NewEligibilityService(db, ledgerService)
	withdrawalService := services.NewWithdrawalService(db, ledgerService, eligibilityService)
	fundingService := services.NewFundingService(db, ledgerService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifyClient := workers.NewNotificationClient(db)
	go workers.PollNotifications(ctx, notifyClient, time.Minute)

	withdrawalService.StartExpiryScheduler()

	handlers.SetupCronRoutes(app, accrualService, maturityService)
	handlers.SetupInvestmentRoutes(app, planService, investmentService, ledgerService)
	handlers.SetupWithdrawalRoutes(app, eligibilityService, withdrawalService)
	handlers.SetupAdminRoutes(app, planService, fundingService, withdrawalService, maturityService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("server error: %v", err)
		}
	}()

	log.Printf("server running on http://localhost:%s", port)
	log.Println("notification outbox worker running (every 1m)")
	log.Println("withdrawal expiry scheduler running (every 24h)")

	<-ctx.Done()
	log.Println("shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
