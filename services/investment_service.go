package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"crypto-invest-platform/models"
	"crypto-invest-platform/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvestmentService turns an approved deposit into a locked,
// interest-bearing investment and answers portfolio queries. Once
// created, an investment belongs to the accrual and maturity processors
// until it leaves the active state.
type InvestmentService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewInvestmentService(db *gorm.DB, ledger *LedgerService) *InvestmentService {
	return &InvestmentService{DB: db, Ledger: ledger}
}

type CreateInvestmentInput struct {
	UserID     string
	PlanID     string
	Amount     decimal.Decimal
	CryptoType string
}

// CreateInvestment is the entry point called by the deposit-approval
// collaborator. Plan terms are snapshotted onto the investment so later
// plan edits never change rates already bought.
func (s *InvestmentService) CreateInvestment(in CreateInvestmentInput) (*models.Investment, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("investment amount must be positive")
	}
	cryptoType := strings.ToUpper(strings.TrimSpace(in.CryptoType))
	if cryptoType == "" {
		cryptoType = "USDT"
	}

	var plan models.InvestmentPlan
	if err := s.DB.First(&plan, "id = ? AND is_active = ?", in.PlanID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("plan not found or inactive")
		}
		return nil, err
	}
	if in.Amount.LessThan(plan.MinAmount) {
		return nil, fmt.Errorf("amount %s is below plan minimum %s", in.Amount, plan.MinAmount)
	}
	if plan.MaxAmount != nil && in.Amount.GreaterThan(*plan.MaxAmount) {
		return nil, fmt.Errorf("amount %s exceeds plan maximum %s", in.Amount, plan.MaxAmount)
	}

	start := utils.DateOnly(time.Now())
	inv := &models.Investment{
		ID:                    uuid.NewString(),
		UserID:                in.UserID,
		PlanID:                plan.ID,
		Reference:             "INV-" + strings.ToUpper(uuid.NewString()[:8]) + "-" + start.Format("20060102"),
		CryptoType:            cryptoType,
		Amount:                in.Amount,
		DailyProfitPercentage: plan.DailyProfitPercentage,
		DurationDays:          plan.DurationDays,
		StartDate:             start,
		EndDate:               start.AddDate(0, 0, plan.DurationDays),
		Status:                models.InvestmentStatusActive,
		CurrentBalance:        in.Amount,
		TotalEarned:           decimal.Zero,
		LockedAmount:          in.Amount,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// The ledger row lock serializes concurrent creates for the same
		// user, so two requests cannot both count under the cap and
		// leave the user over it.
		if err := s.Ledger.LockTx(tx, in.UserID); err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Investment{}).
			Where("user_id = ? AND status = ?", in.UserID, models.InvestmentStatusActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active >= models.MaxActiveInvestmentsPerUser {
			return ErrInvestmentCap
		}

		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		return s.Ledger.CreditTx(tx, LedgerMutation{
			UserID:      in.UserID,
			Amount:      in.Amount,
			Kind:        models.LedgerKindDeposit,
			Reference:   "DEP-" + inv.ID,
			Description: fmt.Sprintf("Deposit into plan %s (%s)", plan.Title, inv.Reference),
		})
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListUserInvestments returns a user's investments, newest first.
func (s *InvestmentService) ListUserInvestments(userID string) ([]models.Investment, error) {
	var investments []models.Investment
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&investments).Error
	return investments, err
}

// GetInvestment fetches one investment scoped to its owner.
func (s *InvestmentService) GetInvestment(id, userID string) (*models.Investment, error) {
	var inv models.Investment
	err := s.DB.First(&inv, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// AccrualHistory lists the dated profit records for an investment, the
// day-by-day audit behind totalEarned.
func (s *InvestmentService) AccrualHistory(investmentID, userID string) ([]models.AccrualRecord, error) {
	var inv models.Investment
	if err := s.DB.Select("id").First(&inv, "id = ? AND user_id = ?", investmentID, userID).Error; err != nil {
		return nil, err
	}
	var records []models.AccrualRecord
	err := s.DB.Where("investment_id = ?", investmentID).
		Order("accrual_date ASC").
		Find(&records).Error
	return records, err
}
