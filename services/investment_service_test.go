package services

import (
	"testing"
	"time"

	"crypto-invest-platform/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPlan(t *testing.T, db *gorm.DB, title, pct, min string, max *string, days int) *models.InvestmentPlan {
	t.Helper()
	plans := NewPlanService(db)
	var maxDec *decimal.Decimal
	if max != nil {
		d := dec(t, *max)
		maxDec = &d
	}
	plan, err := plans.CreatePlan(PlanInput{
		Title:                 title,
		DailyProfitPercentage: dec(t, pct),
		MinAmount:             dec(t, min),
		MaxAmount:             maxDec,
		DurationDays:          days,
	})
	require.NoError(t, err)
	return plan
}

func TestCreateInvestment_SnapshotsPlanTerms(t *testing.T) {
	db := newTestDB(t)
	svc := NewInvestmentService(db, NewLedgerService(db))
	plan := seedPlan(t, db, "Starter Plan", "2.20", "50", nil, 60)
	userID := uuid.NewString()

	inv, err := svc.CreateInvestment(CreateInvestmentInput{
		UserID:     userID,
		PlanID:     plan.ID,
		Amount:     dec(t, "100"),
		CryptoType: "btc",
	})
	require.NoError(t, err)

	assertDecimal(t, "2.20", inv.DailyProfitPercentage)
	assert.Equal(t, 60, inv.DurationDays)
	assert.Equal(t, "BTC", inv.CryptoType)
	assert.Equal(t, models.InvestmentStatusActive, inv.Status)
	assertDecimal(t, "100", inv.CurrentBalance)
	assertDecimal(t, "100", inv.LockedAmount)
	assert.True(t, inv.EndDate.Equal(inv.StartDate.AddDate(0, 0, 60)))
	assert.Nil(t, inv.LastAccrualDate)

	// Later plan edits must not touch the snapshot.
	_, err = NewPlanService(db).UpdatePlan(plan.ID, PlanInput{
		Title:                 "Starter Plan",
		DailyProfitPercentage: dec(t, "9.99"),
		MinAmount:             dec(t, "50"),
		DurationDays:          10,
	})
	require.NoError(t, err)
	got := reloadInvestment(t, db, inv.ID)
	assertDecimal(t, "2.20", got.DailyProfitPercentage)
	assert.Equal(t, 60, got.DurationDays)

	l := reloadLedger(t, db, userID)
	assertDecimal(t, "100", l.Funded)
	assertDecimal(t, "100", l.ActiveDeposit)
	assertDecimal(t, "0", l.Balance)
}

func TestCreateInvestment_EnforcesActiveCap(t *testing.T) {
	db := newTestDB(t)
	svc := NewInvestmentService(db, NewLedgerService(db))
	plan := seedPlan(t, db, "Starter Plan", "2.20", "50", nil, 60)
	userID := uuid.NewString()

	for i := 0; i < models.MaxActiveInvestmentsPerUser; i++ {
		_, err := svc.CreateInvestment(CreateInvestmentInput{
			UserID: userID, PlanID: plan.ID, Amount: dec(t, "100"),
		})
		require.NoError(t, err)
	}

	_, err := svc.CreateInvestment(CreateInvestmentInput{
		UserID: userID, PlanID: plan.ID, Amount: dec(t, "100"),
	})
	assert.ErrorIs(t, err, ErrInvestmentCap)

	// Completing one frees a slot.
	var first models.Investment
	require.NoError(t, db.Where("user_id = ?", userID).Order("created_at ASC").First(&first).Error)
	require.NoError(t, db.Model(&first).Update("status", models.InvestmentStatusCompleted).Error)

	_, err = svc.CreateInvestment(CreateInvestmentInput{
		UserID: userID, PlanID: plan.ID, Amount: dec(t, "100"),
	})
	assert.NoError(t, err)
}

func TestCreateInvestment_ValidatesPlanBounds(t *testing.T) {
	db := newTestDB(t)
	svc := NewInvestmentService(db, NewLedgerService(db))
	max := "500"
	plan := seedPlan(t, db, "Bounded Plan", "1.50", "50", &max, 30)

	_, err := svc.CreateInvestment(CreateInvestmentInput{
		UserID: uuid.NewString(), PlanID: plan.ID, Amount: dec(t, "49.99"),
	})
	assert.ErrorContains(t, err, "below plan minimum")

	_, err = svc.CreateInvestment(CreateInvestmentInput{
		UserID: uuid.NewString(), PlanID: plan.ID, Amount: dec(t, "500.01"),
	})
	assert.ErrorContains(t, err, "exceeds plan maximum")
}

func TestCreateInvestment_RejectsInactivePlan(t *testing.T) {
	db := newTestDB(t)
	svc := NewInvestmentService(db, NewLedgerService(db))
	plan := seedPlan(t, db, "Retired Plan", "1.00", "50", nil, 30)
	_, err := NewPlanService(db).SetPlanActive(plan.ID, false)
	require.NoError(t, err)

	_, err = svc.CreateInvestment(CreateInvestmentInput{
		UserID: uuid.NewString(), PlanID: plan.ID, Amount: dec(t, "100"),
	})
	assert.ErrorContains(t, err, "not found or inactive")
}

func TestAccrualHistory_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewInvestmentService(db, NewLedgerService(db))
	userID := uuid.NewString()
	inv := seedInvestment(t, db, userID, "100", "2.00", 30, 3)

	_, err := NewAccrualService(db).RunDailyAccrual(time.Now())
	require.NoError(t, err)

	records, err := svc.AccrualHistory(inv.ID, userID)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, err = svc.AccrualHistory(inv.ID, uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
