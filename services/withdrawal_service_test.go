package services

import (
	"testing"
	"time"

	"crypto-invest-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestWithdrawal_BelowMinimumRejected(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewWithdrawalService(db, ledger, NewEligibilityService(db, ledger))

	_, err := svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID:        uuid.NewString(),
		Amount:        dec(t, "5"),
		WalletAddress: "bc1qexample",
	})
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestRequestWithdrawal_BalanceWithdrawalReserves(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewWithdrawalService(db, ledger, NewEligibilityService(db, ledger))
	userID := uuid.NewString()

	require.NoError(t, ledger.Credit(LedgerMutation{
		UserID: userID, Amount: dec(t, "100"),
		Kind: models.LedgerKindAdminRefund, Reference: "REF-1",
	}))

	w, err := svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID:        userID,
		Amount:        dec(t, "60"),
		CryptoType:    "usdt",
		WalletAddress: "bc1qexample",
	})
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, w.Status)

	l := reloadLedger(t, db, userID)
	assertDecimal(t, "100", l.Balance) // reserved, not yet debited
	assertDecimal(t, "60", l.PendingWithdrawal)

	// A second request beyond the remaining headroom fails.
	_, err = svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID:        userID,
		Amount:        dec(t, "50"),
		WalletAddress: "bc1qexample",
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestApproveWithdrawal_DebitsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewWithdrawalService(db, ledger, NewEligibilityService(db, ledger))
	userID := uuid.NewString()
	adminID := uuid.NewString()

	require.NoError(t, ledger.Credit(LedgerMutation{
		UserID: userID, Amount: dec(t, "100"),
		Kind: models.LedgerKindAdminRefund, Reference: "REF-1",
	}))
	w, err := svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID: userID, Amount: dec(t, "60"), WalletAddress: "bc1qexample",
	})
	require.NoError(t, err)

	approved, err := svc.ApproveWithdrawal(w.ID, adminID, "paid out")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusCompleted, approved.Status)
	require.NotNil(t, approved.ProcessedAt)

	l := reloadLedger(t, db, userID)
	assertDecimal(t, "40", l.Balance)
	assertDecimal(t, "0", l.PendingWithdrawal)
	assertDecimal(t, "60", l.TotalWithdrawal)

	// Re-approval of a settled withdrawal is a clean conflict, not a
	// second debit.
	_, err = svc.ApproveWithdrawal(w.ID, adminID, "again")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	l = reloadLedger(t, db, userID)
	assertDecimal(t, "40", l.Balance)
}

func TestRejectWithdrawal_ReleasesReservation(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewWithdrawalService(db, ledger, NewEligibilityService(db, ledger))
	userID := uuid.NewString()

	require.NoError(t, ledger.Credit(LedgerMutation{
		UserID: userID, Amount: dec(t, "100"),
		Kind: models.LedgerKindAdminRefund, Reference: "REF-1",
	}))
	w, err := svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID: userID, Amount: dec(t, "60"), WalletAddress: "bc1qexample",
	})
	require.NoError(t, err)

	rejected, err := svc.RejectWithdrawal(w.ID, uuid.NewString(), "address mismatch")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, rejected.Status)

	l := reloadLedger(t, db, userID)
	assertDecimal(t, "100", l.Balance)
	assertDecimal(t, "0", l.PendingWithdrawal)
	assertDecimal(t, "0", l.TotalWithdrawal)
}

func TestRequestWithdrawal_InvestmentProfitOnly(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewWithdrawalService(db, ledger, NewEligibilityService(db, ledger))
	userID := uuid.NewString()

	// 1000 at 2% for one accrued day: 20 profit available.
	inv := seedInvestment(t, db, userID, "1000", "2.00", 60, 1)
	_, err := NewAccrualService(db).RunDailyAccrual(time.Now())
	require.NoError(t, err)

	// Principal can never ride along.
	_, err = svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID: userID, Amount: dec(t, "500"),
		WalletAddress: "bc1qexample", InvestmentID: &inv.ID,
	})
	assert.ErrorContains(t, err, "exceeds eligible profit")

	w, err := svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID: userID, Amount: dec(t, "20"),
		WalletAddress: "bc1qexample", InvestmentID: &inv.ID,
	})
	require.NoError(t, err)

	// Profit moved out of the investment and into the reservation.
	got := reloadInvestment(t, db, inv.ID)
	assertDecimal(t, "1000", got.CurrentBalance)
	assertDecimal(t, "20.00", got.TotalEarned) // earnings history untouched

	l := reloadLedger(t, db, userID)
	assertDecimal(t, "20", l.Balance)
	assertDecimal(t, "20", l.PendingWithdrawal)

	_, err = svc.ApproveWithdrawal(w.ID, uuid.NewString(), "")
	require.NoError(t, err)
	l = reloadLedger(t, db, userID)
	assertDecimal(t, "0", l.Balance)
	assertDecimal(t, "20", l.TotalWithdrawal)
}

func TestRejectWithdrawal_ReleasedProfitStaysSpendable(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	eligibility := NewEligibilityService(db, ledger)
	svc := NewWithdrawalService(db, ledger, eligibility)
	userID := uuid.NewString()

	inv := seedInvestment(t, db, userID, "1000", "2.00", 60, 1)
	_, err := NewAccrualService(db).RunDailyAccrual(time.Now())
	require.NoError(t, err)

	w, err := svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID: userID, Amount: dec(t, "20"),
		WalletAddress: "bc1qexample", InvestmentID: &inv.ID,
	})
	require.NoError(t, err)

	_, err = svc.RejectWithdrawal(w.ID, uuid.NewString(), "address mismatch")
	require.NoError(t, err)

	// The released profit stays in the spendable balance rather than
	// moving back onto the investment; the user withdraws it from there.
	got := reloadInvestment(t, db, inv.ID)
	assertDecimal(t, "1000", got.CurrentBalance)
	l := reloadLedger(t, db, userID)
	assertDecimal(t, "20", l.Balance)
	assertDecimal(t, "0", l.PendingWithdrawal)

	elig, err := eligibility.CheckEligibility(userID, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, elig.CanWithdraw)
	assertDecimal(t, "20", elig.AvailableAmount)
}

func TestExpireStaleRequests(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewWithdrawalService(db, ledger, NewEligibilityService(db, ledger))
	userID := uuid.NewString()

	require.NoError(t, ledger.Credit(LedgerMutation{
		UserID: userID, Amount: dec(t, "100"),
		Kind: models.LedgerKindAdminRefund, Reference: "REF-1",
	}))
	w, err := svc.RequestWithdrawal(WithdrawalRequestInput{
		UserID: userID, Amount: dec(t, "30"), WalletAddress: "bc1qexample",
	})
	require.NoError(t, err)

	// Too fresh: nothing expires.
	expired, err := svc.ExpireStaleRequests(time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	// Backdate the request past the cutoff.
	require.NoError(t, db.Model(&models.Withdrawal{}).
		Where("id = ?", w.ID).
		Update("created_at", time.Now().AddDate(0, 0, -10)).Error)

	expired, err = svc.ExpireStaleRequests(time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	l := reloadLedger(t, db, userID)
	assertDecimal(t, "0", l.PendingWithdrawal)
}
