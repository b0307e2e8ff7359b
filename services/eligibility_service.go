package services

import (
	"errors"
	"fmt"
	"time"

	"crypto-invest-platform/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MinWithdrawalAmount is the smallest withdrawal the platform accepts,
// in USD.
var MinWithdrawalAmount = decimal.NewFromInt(10)

// EligibilityService answers "how much can this user take out right
// now". Principal of an active investment is never part of the answer;
// only accrued profit and already-released spendable balance are.
type EligibilityService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewEligibilityService(db *gorm.DB, ledger *LedgerService) *EligibilityService {
	return &EligibilityService{DB: db, Ledger: ledger}
}

type EligibilityResult struct {
	CanWithdraw     bool            `json:"can_withdraw"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	Message         string          `json:"message"`
}

// CheckEligibility computes the maximum withdrawable amount for a user,
// either against one investment or aggregated across the whole account.
func (s *EligibilityService) CheckEligibility(userID string, investmentID *string, now time.Time) (*EligibilityResult, error) {
	if investmentID != nil {
		return s.checkInvestment(userID, *investmentID, now)
	}
	return s.checkAggregate(userID, now)
}

func (s *EligibilityService) checkInvestment(userID, investmentID string, now time.Time) (*EligibilityResult, error) {
	var inv models.Investment
	err := s.DB.First(&inv, "id = ? AND user_id = ?", investmentID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("investment not found")
		}
		return nil, err
	}

	if inv.Status != models.InvestmentStatusActive {
		return &EligibilityResult{
			CanWithdraw:     false,
			AvailableAmount: decimal.Zero,
			Message:         fmt.Sprintf("Investment is %s; its funds were released to your balance", inv.Status),
		}, nil
	}

	if locked, until := withdrawalLocked(&inv, now); locked {
		return &EligibilityResult{
			CanWithdraw:     false,
			AvailableAmount: decimal.Zero,
			Message:         fmt.Sprintf("Withdrawals are locked until %s", until.Format("2006-01-02")),
		}, nil
	}

	profit := eligibleProfit(&inv)
	if profit.LessThan(MinWithdrawalAmount) {
		return &EligibilityResult{
			CanWithdraw:     false,
			AvailableAmount: profit,
			Message:         fmt.Sprintf("Available profit %s is below the %s minimum withdrawal", profit, MinWithdrawalAmount),
		}, nil
	}

	return &EligibilityResult{
		CanWithdraw:     true,
		AvailableAmount: profit,
		Message:         "Accrued profit is available for withdrawal; principal stays locked until maturity",
	}, nil
}

func (s *EligibilityService) checkAggregate(userID string, now time.Time) (*EligibilityResult, error) {
	var investments []models.Investment
	err := s.DB.Where("user_id = ? AND status = ?", userID, models.InvestmentStatusActive).
		Find(&investments).Error
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range investments {
		if locked, _ := withdrawalLocked(&investments[i], now); locked {
			continue
		}
		total = total.Add(eligibleProfit(&investments[i]))
	}

	ledger, err := s.Ledger.GetLedger(userID)
	if err != nil {
		return nil, err
	}
	spendable := ledger.Balance.Sub(ledger.PendingWithdrawal)
	if spendable.IsPositive() {
		total = total.Add(spendable)
	}

	if total.LessThan(MinWithdrawalAmount) {
		return &EligibilityResult{
			CanWithdraw:     false,
			AvailableAmount: total,
			Message:         fmt.Sprintf("Available funds %s are below the %s minimum withdrawal", total, MinWithdrawalAmount),
		}, nil
	}

	return &EligibilityResult{
		CanWithdraw:     true,
		AvailableAmount: total,
		Message:         "Funds available: accrued profit plus released balance, net of pending withdrawals",
	}, nil
}

// eligibleProfit is the withdrawable slice of an active investment:
// currentBalance minus locked principal, floored at zero.
func eligibleProfit(inv *models.Investment) decimal.Decimal {
	profit := inv.CurrentBalance.Sub(inv.Amount)
	if profit.IsNegative() {
		return decimal.Zero
	}
	return profit
}

func withdrawalLocked(inv *models.Investment, now time.Time) (bool, time.Time) {
	if inv.WithdrawalLockUntil != nil && inv.WithdrawalLockUntil.After(now) {
		return true, *inv.WithdrawalLockUntil
	}
	return false, time.Time{}
}
