package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"crypto-invest-platform/models"
	"crypto-invest-platform/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaturityService closes investments whose term has elapsed. Each one is
// a two-phase transition — finalize accrual, then release principal —
// and both phases are individually idempotent so a partially failed
// batch can simply run again.
type MaturityService struct {
	DB      *gorm.DB
	Accrual *AccrualService
	Ledger  *LedgerService
}

func NewMaturityService(db *gorm.DB, accrual *AccrualService, ledger *LedgerService) *MaturityService {
	return &MaturityService{DB: db, Accrual: accrual, Ledger: ledger}
}

type MaturityFailure struct {
	InvestmentID string `json:"investment_id"`
	Reason       string `json:"reason"`
}

type MaturityRunResult struct {
	MaturedCount  int               `json:"matured_count"`
	TotalReleased decimal.Decimal   `json:"total_released"`
	Errors        []MaturityFailure `json:"errors"`
}

// ProcessMaturity completes every active investment past its end date.
// The final day accrues a full day's profit, not an hour-prorated one.
func (s *MaturityService) ProcessMaturity(now time.Time) (*MaturityRunResult, error) {
	today := utils.DateOnly(now)
	result := &MaturityRunResult{
		TotalReleased: decimal.Zero,
		Errors:        []MaturityFailure{},
	}

	var due []models.Investment
	err := s.DB.
		Where("status = ? AND end_date <= ?", models.InvestmentStatusActive, today).
		Order("end_date ASC").
		Find(&due).Error
	if err != nil {
		return nil, err
	}

	for i := range due {
		inv := &due[i]
		released, err := s.matureOne(inv)
		if err != nil {
			if errors.Is(err, ErrAlreadyProcessed) {
				continue
			}
			log.Printf("[MATURITY] investment %s failed: %v", inv.ID, err)
			result.Errors = append(result.Errors, MaturityFailure{
				InvestmentID: inv.ID,
				Reason:       err.Error(),
			})
			continue
		}
		result.MaturedCount++
		result.TotalReleased = result.TotalReleased.Add(released)
		s.enqueueMaturityNotice(inv)
	}

	log.Printf("[MATURITY] run: matured=%d released=%s errors=%d",
		result.MaturedCount, result.TotalReleased, len(result.Errors))
	return result, nil
}

func (s *MaturityService) matureOne(inv *models.Investment) (decimal.Decimal, error) {
	// Phase 1: make totalEarned complete through the end date before the
	// books close. Idempotent via the per-day accrual records.
	if _, _, err := s.Accrual.CatchUp(inv, inv.EndDate); err != nil {
		return decimal.Zero, fmt.Errorf("finalize accrual: %w", err)
	}

	// Phase 2: release exactly once. The unique maturity event keyed by
	// investment id is the guard; the status flip, the unlock and the
	// ledger credits ride the same transaction.
	return s.release(inv, models.MaturityEventMatured,
		fmt.Sprintf("Principal release for matured investment %s", inv.Reference))
}

// CancelInvestment is the admin path out of the active state. Principal
// and any profit still accrued on the investment go back to the
// spendable balance through the same one-shot release guard as maturity.
func (s *MaturityService) CancelInvestment(id, adminID string) (*models.Investment, error) {
	var inv models.Investment
	if err := s.DB.First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if inv.Status != models.InvestmentStatusActive {
		return nil, ErrAlreadyProcessed
	}

	_, err := s.release(&inv, models.MaturityEventCancelled,
		fmt.Sprintf("Principal release for investment %s cancelled by admin %s", inv.Reference, adminID))
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// release empties the investment into the spendable balance: principal
// as a maturity_release credit (which also unwinds active_deposit), and
// whatever accrued profit is still parked on the investment as an
// accrual credit. Returns the total amount released.
func (s *MaturityService) release(inv *models.Investment, kind models.MaturityEventKind, description string) (decimal.Decimal, error) {
	targetStatus := models.InvestmentStatusCompleted
	if kind == models.MaturityEventCancelled {
		targetStatus = models.InvestmentStatusCancelled
	}
	profit := inv.CurrentBalance.Sub(inv.Amount)
	released := inv.Amount.Add(profit)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		event := models.MaturityEvent{
			ID:           uuid.NewString(),
			InvestmentID: inv.ID,
			Kind:         kind,
			Amount:       released,
		}
		if err := tx.Create(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyProcessed
			}
			return err
		}

		res := tx.Model(&models.Investment{}).
			Where("id = ? AND status = ?", inv.ID, models.InvestmentStatusActive).
			Updates(map[string]interface{}{
				"status":          targetStatus,
				"locked_amount":   decimal.Zero,
				"current_balance": decimal.Zero,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		// Deterministic references: a re-run that somehow got past the
		// event guard still cannot credit either portion twice.
		err := s.Ledger.CreditTx(tx, LedgerMutation{
			UserID:      inv.UserID,
			Amount:      inv.Amount,
			Kind:        models.LedgerKindMaturityRelease,
			Reference:   "MAT-" + inv.ID,
			Description: description,
		})
		if err != nil {
			return err
		}
		if !profit.IsPositive() {
			return nil
		}
		return s.Ledger.CreditTx(tx, LedgerMutation{
			UserID:      inv.UserID,
			Amount:      profit,
			Kind:        models.LedgerKindAccrual,
			Reference:   "MATPRF-" + inv.ID,
			Description: fmt.Sprintf("Accrued profit released from investment %s", inv.Reference),
		})
	})
	if err != nil {
		return decimal.Zero, err
	}

	inv.Status = targetStatus
	inv.LockedAmount = decimal.Zero
	inv.CurrentBalance = decimal.Zero
	return released, nil
}

func (s *MaturityService) enqueueMaturityNotice(inv *models.Investment) {
	notice := models.Notification{
		ID:      uuid.NewString(),
		UserID:  inv.UserID,
		Subject: "Investment matured",
		Body: fmt.Sprintf("Your investment %s has matured. Principal of %s %s is now available, total profit earned %s.",
			inv.Reference, inv.Amount, inv.CryptoType, inv.TotalEarned),
	}
	if err := s.DB.Create(&notice).Error; err != nil {
		// Notification delivery is fire-and-forget; money already moved.
		log.Printf("[MATURITY] failed to enqueue notification for %s: %v", inv.ID, err)
	}
}
