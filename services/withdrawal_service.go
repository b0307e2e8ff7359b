package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"crypto-invest-platform/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalService handles the money side of withdrawal requests.
// Requesting reserves funds, admin approval settles the debit exactly
// once, rejection releases the reservation. Profit withdrawn from an
// active investment is first released out of the investment's running
// balance into the ledger, so settlement is uniform afterwards.
type WithdrawalService struct {
	DB          *gorm.DB
	Ledger      *LedgerService
	Eligibility *EligibilityService
}

func NewWithdrawalService(db *gorm.DB, ledger *LedgerService, eligibility *EligibilityService) *WithdrawalService {
	return &WithdrawalService{DB: db, Ledger: ledger, Eligibility: eligibility}
}

type WithdrawalRequestInput struct {
	UserID        string
	Amount        decimal.Decimal
	CryptoType    string
	WalletAddress string
	InvestmentID  *string
}

// RequestWithdrawal validates eligibility and creates a pending
// withdrawal with the amount reserved.
func (s *WithdrawalService) RequestWithdrawal(in WithdrawalRequestInput) (*models.Withdrawal, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(in.WalletAddress) == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	if in.Amount.LessThan(MinWithdrawalAmount) {
		return nil, fmt.Errorf("%w: minimum is %s, requested %s", ErrBelowMinimum, MinWithdrawalAmount, in.Amount)
	}

	// Intake goes through the eligibility checker, so the lock window,
	// the profit floor and the reservation headroom are judged in one
	// place. The transactional guards below re-verify what matters under
	// concurrency.
	elig, err := s.Eligibility.CheckEligibility(in.UserID, in.InvestmentID, time.Now())
	if err != nil {
		return nil, err
	}
	if !elig.CanWithdraw {
		return nil, fmt.Errorf("not eligible to withdraw: %s", elig.Message)
	}
	if in.Amount.GreaterThan(elig.AvailableAmount) {
		if in.InvestmentID != nil {
			return nil, fmt.Errorf("requested %s exceeds eligible profit %s", in.Amount, elig.AvailableAmount)
		}
		return nil, fmt.Errorf("%w: requested %s exceeds available %s", ErrInsufficientFunds, in.Amount, elig.AvailableAmount)
	}

	w := &models.Withdrawal{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Amount:        in.Amount,
		CryptoType:    strings.ToUpper(strings.TrimSpace(in.CryptoType)),
		WalletAddress: strings.TrimSpace(in.WalletAddress),
		Status:        models.WithdrawalStatusPending,
		Reference:     "WDR-" + strings.ToUpper(uuid.NewString()[:8]),
	}
	if w.CryptoType == "" {
		w.CryptoType = "USDT"
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if in.InvestmentID != nil {
			if err := s.releaseProfit(tx, in, w.Reference); err != nil {
				return err
			}
		}
		if err := s.Ledger.ReservePendingTx(tx, in.UserID, in.Amount); err != nil {
			return err
		}
		return tx.Create(w).Error
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// releaseProfit moves accrued profit out of an active investment's
// running balance into the spendable ledger balance so the pending
// withdrawal can draw on it. Principal stays behind: the update is
// guarded on the exact balance just read, so a concurrent accrual or
// release makes it match zero rows instead of writing a stale value.
func (s *WithdrawalService) releaseProfit(tx *gorm.DB, in WithdrawalRequestInput, reference string) error {
	var inv models.Investment
	err := tx.First(&inv, "id = ? AND user_id = ?", *in.InvestmentID, in.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("investment not found")
		}
		return err
	}
	if inv.Status != models.InvestmentStatusActive {
		return fmt.Errorf("investment is %s; withdraw from your released balance instead", inv.Status)
	}
	if in.Amount.GreaterThan(eligibleProfit(&inv)) {
		return fmt.Errorf("requested %s exceeds eligible profit %s", in.Amount, eligibleProfit(&inv))
	}

	res := tx.Model(&models.Investment{}).
		Where("id = ? AND status = ? AND current_balance = ?",
			inv.ID, models.InvestmentStatusActive, inv.CurrentBalance).
		Update("current_balance", inv.CurrentBalance.Sub(in.Amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("investment %s changed while releasing profit, retry the request", inv.Reference)
	}

	return s.Ledger.CreditTx(tx, LedgerMutation{
		UserID:      in.UserID,
		Amount:      in.Amount,
		Kind:        models.LedgerKindAccrual,
		Reference:   "PRF-" + reference,
		Description: fmt.Sprintf("Profit released from investment %s for withdrawal %s", inv.Reference, reference),
	})
}

// ApproveWithdrawal settles a pending withdrawal: one status-guarded
// transition, one ledger debit, both in the same transaction so a
// repeated approval is a clean ErrAlreadyProcessed.
func (s *WithdrawalService) ApproveWithdrawal(id, adminID, notes string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := s.DB.First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status IN ?", id, []models.WithdrawalStatus{
				models.WithdrawalStatusPending,
				models.WithdrawalStatusProcessing,
			}).
			Updates(map[string]interface{}{
				"status":       models.WithdrawalStatusCompleted,
				"admin_id":     adminID,
				"admin_notes":  notes,
				"processed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		return s.Ledger.DebitTx(tx, LedgerMutation{
			UserID:      w.UserID,
			Amount:      w.Amount,
			Kind:        models.LedgerKindWithdrawal,
			Reference:   "SET-" + w.Reference,
			Description: fmt.Sprintf("Withdrawal %s settled to %s", w.Reference, w.WalletAddress),
		})
	})
	if err != nil {
		return nil, err
	}

	w.Status = models.WithdrawalStatusCompleted
	w.AdminID = &adminID
	w.AdminNotes = notes
	w.ProcessedAt = &now
	s.enqueueWithdrawalNotice(&w, "completed")
	return &w, nil
}

// RejectWithdrawal declines a pending withdrawal and releases its
// reservation. No balance effect.
func (s *WithdrawalService) RejectWithdrawal(id, adminID, notes string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := s.DB.First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status IN ?", id, []models.WithdrawalStatus{
				models.WithdrawalStatusPending,
				models.WithdrawalStatusProcessing,
			}).
			Updates(map[string]interface{}{
				"status":       models.WithdrawalStatusRejected,
				"admin_id":     adminID,
				"admin_notes":  notes,
				"processed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}
		return s.Ledger.ReleasePendingTx(tx, w.UserID, w.Amount)
	})
	if err != nil {
		return nil, err
	}

	w.Status = models.WithdrawalStatusRejected
	w.AdminID = &adminID
	w.AdminNotes = notes
	w.ProcessedAt = &now
	s.enqueueWithdrawalNotice(&w, "rejected")
	return &w, nil
}

// ListUserWithdrawals returns a user's withdrawal history, newest first.
func (s *WithdrawalService) ListUserWithdrawals(userID string) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&withdrawals).Error
	return withdrawals, err
}

// ListByStatus is the admin queue view.
func (s *WithdrawalService) ListByStatus(status models.WithdrawalStatus, limit int) ([]models.Withdrawal, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := s.DB.Order("created_at ASC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var withdrawals []models.Withdrawal
	err := query.Find(&withdrawals).Error
	return withdrawals, err
}

// ExpireStaleRequests rejects pending withdrawals older than the cutoff
// and releases their reservations, so forgotten requests do not pin a
// user's balance forever.
func (s *WithdrawalService) ExpireStaleRequests(olderThan time.Time) (int, error) {
	var stale []models.Withdrawal
	err := s.DB.Where("status = ? AND created_at < ?", models.WithdrawalStatusPending, olderThan).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	// admin_id is uuid-typed; the zero uuid marks the system actor.
	systemActor := uuid.Nil.String()
	expired := 0
	for i := range stale {
		if _, err := s.RejectWithdrawal(stale[i].ID, systemActor, "Expired: not processed in time"); err != nil {
			log.Printf("[WITHDRAWAL] failed to expire %s: %v", stale[i].ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// StartExpiryScheduler runs the stale-reservation sweep once a day.
// The accrual and maturity batches stay externally triggered; this job
// is purely local housekeeping.
func (s *WithdrawalService) StartExpiryScheduler() {
	expiryDays := 7
	if v := os.Getenv("WITHDRAWAL_EXPIRY_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expiryDays = n
		}
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			cutoff := time.Now().AddDate(0, 0, -expiryDays)
			expired, err := s.ExpireStaleRequests(cutoff)
			if err != nil {
				log.Printf("[WITHDRAWAL] expiry sweep failed: %v", err)
				return
			}
			if expired > 0 {
				log.Printf("[WITHDRAWAL] expired %d stale pending requests", expired)
			}
		}),
	)
}

func (s *WithdrawalService) enqueueWithdrawalNotice(w *models.Withdrawal, outcome string) {
	notice := models.Notification{
		ID:      uuid.NewString(),
		UserID:  w.UserID,
		Subject: fmt.Sprintf("Withdrawal %s %s", w.Reference, outcome),
		Body: fmt.Sprintf("Your withdrawal of %s %s to %s was %s.",
			w.Amount, w.CryptoType, w.WalletAddress, outcome),
	}
	if err := s.DB.Create(&notice).Error; err != nil {
		log.Printf("[WITHDRAWAL] failed to enqueue notification for %s: %v", w.UserID, err)
	}
}
