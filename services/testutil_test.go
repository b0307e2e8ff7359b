package services

import (
	"fmt"
	"testing"
	"time"

	"crypto-invest-platform/models"
	"crypto-invest-platform/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.InvestmentPlan{},
		&models.Investment{},
		&models.AccrualRecord{},
		&models.MaturityEvent{},
		&models.UserLedger{},
		&models.LedgerEntry{},
		&models.Withdrawal{},
		&models.AdminFundingTransaction{},
		&models.Notification{},
	))
	return db
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	w, err := decimal.NewFromString(want)
	require.NoError(t, err)
	require.Truef(t, w.Equal(got), "want %s, got %s", want, got)
}

// seedInvestment writes an active investment that started startDaysAgo
// days before today, with its principal reflected in the user's ledger
// the way CreateInvestment would have recorded it.
func seedInvestment(t *testing.T, db *gorm.DB, userID, amount, dailyPct string, durationDays, startDaysAgo int) *models.Investment {
	t.Helper()

	start := utils.DateOnly(time.Now()).AddDate(0, 0, -startDaysAgo)
	amt := dec(t, amount)
	inv := &models.Investment{
		ID:                    uuid.NewString(),
		UserID:                userID,
		PlanID:                uuid.NewString(),
		Reference:             "INV-" + uuid.NewString()[:8],
		CryptoType:            "USDT",
		Amount:                amt,
		DailyProfitPercentage: dec(t, dailyPct),
		DurationDays:          durationDays,
		StartDate:             start,
		EndDate:               start.AddDate(0, 0, durationDays),
		Status:                models.InvestmentStatusActive,
		CurrentBalance:        amt,
		TotalEarned:           decimal.Zero,
		LockedAmount:          amt,
	}
	require.NoError(t, db.Create(inv).Error)

	ledger := NewLedgerService(db)
	require.NoError(t, ledger.Credit(LedgerMutation{
		UserID:      userID,
		Amount:      amt,
		Kind:        models.LedgerKindDeposit,
		Reference:   "DEP-" + inv.ID,
		Description: "seeded deposit",
	}))
	return inv
}

func reloadInvestment(t *testing.T, db *gorm.DB, id string) *models.Investment {
	t.Helper()
	var inv models.Investment
	require.NoError(t, db.First(&inv, "id = ?", id).Error)
	return &inv
}

func reloadLedger(t *testing.T, db *gorm.DB, userID string) *models.UserLedger {
	t.Helper()
	var ledger models.UserLedger
	require.NoError(t, db.First(&ledger, "user_id = ?", userID).Error)
	return &ledger
}
