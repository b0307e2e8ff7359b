package services

import (
	"errors"
	"log"
	"time"

	"crypto-invest-platform/models"
	"crypto-invest-platform/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccrualService runs the daily profit batch. Each (investment, day) is
// one all-or-nothing transaction; the unique accrual record is the sole
// idempotency mechanism, so the batch can be retriggered, raced, or
// resumed after a timeout without double-paying a day.
type AccrualService struct {
	DB *gorm.DB
}

func NewAccrualService(db *gorm.DB) *AccrualService {
	return &AccrualService{DB: db}
}

type AccrualFailure struct {
	InvestmentID string `json:"investment_id"`
	Reason       string `json:"reason"`
}

type AccrualRunResult struct {
	Processed int              `json:"processed"`
	Skipped   int              `json:"skipped"`
	Failed    []AccrualFailure `json:"failed"`
}

// RunDailyAccrual credits profit for every active investment that has
// not yet been accrued for today. Missed days are caught up one dated
// record per day, never a lump sum, and never past the investment's end
// date.
func (s *AccrualService) RunDailyAccrual(today time.Time) (*AccrualRunResult, error) {
	today = utils.DateOnly(today)
	result := &AccrualRunResult{Failed: []AccrualFailure{}}

	var due []models.Investment
	err := s.DB.
		Where("status = ?", models.InvestmentStatusActive).
		Where("start_date < ?", today).
		Where("last_accrual_date IS NULL OR last_accrual_date < ?", today).
		Order("created_at ASC").
		Find(&due).Error
	if err != nil {
		return nil, err
	}

	for i := range due {
		processed, skipped, err := s.CatchUp(&due[i], today)
		result.Processed += processed
		result.Skipped += skipped
		if err != nil {
			log.Printf("[ACCRUAL] investment %s failed: %v", due[i].ID, err)
			result.Failed = append(result.Failed, AccrualFailure{
				InvestmentID: due[i].ID,
				Reason:       err.Error(),
			})
		}
	}

	log.Printf("[ACCRUAL] run for %s: processed=%d skipped=%d failed=%d",
		today.Format("2006-01-02"), result.Processed, result.Skipped, len(result.Failed))
	return result, nil
}

// CatchUp applies every missing accrual day for one investment, in
// strict calendar order, up to min(through, EndDate). The maturity
// processor reuses it to finalize earnings before releasing principal.
// A failed day stops the walk so lastAccrualDate never skips a day; the
// next run resumes from where this one stopped.
func (s *AccrualService) CatchUp(inv *models.Investment, through time.Time) (processed, skipped int, err error) {
	through = utils.DateOnly(through)
	end := utils.DateOnly(inv.EndDate)
	if through.After(end) {
		through = end
	}

	day := utils.NextDay(inv.StartDate)
	if inv.LastAccrualDate != nil {
		day = utils.NextDay(*inv.LastAccrualDate)
	}

	for !day.After(through) {
		if err := s.accrueDay(inv, day); err != nil {
			if errors.Is(err, errAlreadyAccrued) {
				// A concurrent run credited this day. Reload so the next
				// day's totals build on what it wrote, and resume the walk
				// after whatever it got to.
				skipped++
				if err := s.DB.First(inv, "id = ?", inv.ID).Error; err != nil {
					return processed, skipped, err
				}
				if inv.LastAccrualDate != nil && !utils.NextDay(*inv.LastAccrualDate).Before(day) {
					day = utils.NextDay(*inv.LastAccrualDate)
					continue
				}
				day = day.AddDate(0, 0, 1)
				continue
			}
			return processed, skipped, err
		}
		processed++
		day = day.AddDate(0, 0, 1)
	}
	return processed, skipped, nil
}

// accrueDay credits exactly one day's profit inside one transaction:
// the record insert and the running-balance update commit together or
// not at all. The new totals are computed in decimal arithmetic and
// written as concrete values, never as in-database addition, so the sum
// of accrual records always equals total_earned to the cent.
func (s *AccrualService) accrueDay(inv *models.Investment, day time.Time) error {
	profit := dailyProfit(inv)
	newBalance := inv.CurrentBalance.Add(profit)
	newTotal := inv.TotalEarned.Add(profit)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		record := models.AccrualRecord{
			ID:           uuid.NewString(),
			InvestmentID: inv.ID,
			AccrualDate:  day,
			Amount:       profit,
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyAccrued
			}
			return err
		}

		// The last_accrual_date guard also protects the computed totals:
		// it only passes when no writer has advanced past our snapshot.
		res := tx.Model(&models.Investment{}).
			Where("id = ? AND status = ?", inv.ID, models.InvestmentStatusActive).
			Where("last_accrual_date IS NULL OR last_accrual_date < ?", day).
			Updates(map[string]interface{}{
				"current_balance":   newBalance,
				"total_earned":      newTotal,
				"last_accrual_date": day,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent run got here first; its transaction carries
			// both the record and the update, so back out ours whole.
			return errAlreadyAccrued
		}
		return nil
	})
	if err != nil {
		return err
	}

	inv.CurrentBalance = newBalance
	inv.TotalEarned = newTotal
	d := day
	inv.LastAccrualDate = &d
	return nil
}

func dailyProfit(inv *models.Investment) decimal.Decimal {
	return inv.Amount.
		Mul(inv.DailyProfitPercentage).
		Div(decimal.NewFromInt(100)).
		Round(2)
}
