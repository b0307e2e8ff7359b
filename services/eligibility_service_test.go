package services

import (
	"testing"
	"time"

	"crypto-invest-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCheckEligibility_PrincipalNeverWithdrawable(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewEligibilityService(db, ledger)
	userID := uuid.NewString()

	inv := seedInvestment(t, db, userID, "100", "2.20", 60, 1)
	_, err := NewAccrualService(db).RunDailyAccrual(time.Now())
	require.NoError(t, err)

	result, err := svc.CheckEligibility(userID, &inv.ID, time.Now())
	require.NoError(t, err)
	// Only the 2.20 profit, never the 100 principal.
	assertDecimal(t, "2.20", result.AvailableAmount)
	assert.False(t, result.CanWithdraw) // below the $10 minimum
	assert.Contains(t, result.Message, "minimum")
}

func TestCheckEligibility_ProfitAboveMinimum(t *testing.T) {
	db := newTestDB(t)
	svc := NewEligibilityService(db, NewLedgerService(db))
	userID := uuid.NewString()

	inv := seedInvestment(t, db, userID, "1000", "2.00", 60, 1)
	_, err := NewAccrualService(db).RunDailyAccrual(time.Now())
	require.NoError(t, err)

	result, err := svc.CheckEligibility(userID, &inv.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, result.CanWithdraw)
	assertDecimal(t, "20.00", result.AvailableAmount)
}

func TestCheckEligibility_WithdrawalLockBlocksEverything(t *testing.T) {
	db := newTestDB(t)
	svc := NewEligibilityService(db, NewLedgerService(db))
	userID := uuid.NewString()

	inv := seedInvestment(t, db, userID, "1000", "2.00", 60, 1)
	_, err := NewAccrualService(db).RunDailyAccrual(time.Now())
	require.NoError(t, err)

	lockUntil := time.Now().AddDate(0, 0, 14)
	require.NoError(t, db.Model(&models.Investment{}).
		Where("id = ?", inv.ID).
		Update("withdrawal_lock_until", lockUntil).Error)

	result, err := svc.CheckEligibility(userID, &inv.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, result.CanWithdraw)
	assertDecimal(t, "0", result.AvailableAmount)
	assert.Contains(t, result.Message, "locked until")
}

func TestCheckEligibility_AggregateAcrossAccount(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewEligibilityService(db, ledger)
	userID := uuid.NewString()

	// Two active investments, one day of profit each: 20 + 6.
	seedInvestment(t, db, userID, "1000", "2.00", 60, 1)
	seedInvestment(t, db, userID, "300", "2.00", 30, 1)
	_, err := NewAccrualService(db).RunDailyAccrual(time.Now())
	require.NoError(t, err)

	// Released balance 50 with 15 already reserved.
	require.NoError(t, ledger.Credit(LedgerMutation{
		UserID: userID, Amount: dec(t, "50"),
		Kind: models.LedgerKindAdminRefund, Reference: "REF-1",
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.ReservePendingTx(tx, userID, dec(t, "15"))
	}))

	result, err := svc.CheckEligibility(userID, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, result.CanWithdraw)
	// 20 + 6 profit + (50 - 15) spendable.
	assertDecimal(t, "61.00", result.AvailableAmount)
}

func TestCheckEligibility_CompletedInvestmentReportsZero(t *testing.T) {
	db := newTestDB(t)
	svc := NewEligibilityService(db, NewLedgerService(db))
	userID := uuid.NewString()

	inv := seedInvestment(t, db, userID, "100", "2.20", 3, 8)
	_, err := NewMaturityService(db, NewAccrualService(db), NewLedgerService(db)).ProcessMaturity(time.Now())
	require.NoError(t, err)

	result, err := svc.CheckEligibility(userID, &inv.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, result.CanWithdraw)
	assertDecimal(t, "0", result.AvailableAmount)
	assert.Contains(t, result.Message, "released")
}
