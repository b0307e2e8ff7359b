package services

import (
	"errors"
	"fmt"

	"crypto-invest-platform/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlanService manages the investment plan catalog. Plans are read-only
// input to the accrual engine: edits apply to future investments only.
type PlanService struct {
	DB *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{DB: db}
}

type PlanInput struct {
	Title                 string           `json:"title"`
	DailyProfitPercentage decimal.Decimal  `json:"daily_profit_percentage"`
	MinAmount             decimal.Decimal  `json:"min_amount"`
	MaxAmount             *decimal.Decimal `json:"max_amount"`
	DurationDays          int              `json:"duration_days"`
}

func (in PlanInput) validate() error {
	if in.Title == "" {
		return fmt.Errorf("title is required")
	}
	if in.DailyProfitPercentage.IsNegative() {
		return fmt.Errorf("daily profit percentage cannot be negative")
	}
	if in.DurationDays <= 0 {
		return fmt.Errorf("duration must be at least one day")
	}
	if !in.MinAmount.IsPositive() {
		return fmt.Errorf("minimum amount must be positive")
	}
	if in.MaxAmount != nil && in.MaxAmount.LessThan(in.MinAmount) {
		return fmt.Errorf("maximum amount cannot be below minimum")
	}
	return nil
}

// ListActivePlans is the public catalog view.
func (s *PlanService) ListActivePlans() ([]models.InvestmentPlan, error) {
	var plans []models.InvestmentPlan
	err := s.DB.Where("is_active = ?", true).Order("min_amount ASC").Find(&plans).Error
	return plans, err
}

// ListAllPlans includes deactivated plans for the admin screen.
func (s *PlanService) ListAllPlans() ([]models.InvestmentPlan, error) {
	var plans []models.InvestmentPlan
	err := s.DB.Order("created_at ASC").Find(&plans).Error
	return plans, err
}

// CreatePlan adds a catalog entry with a slug code derived from the title.
func (s *PlanService) CreatePlan(in PlanInput) (*models.InvestmentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	plan := &models.InvestmentPlan{
		ID:                    uuid.NewString(),
		Code:                  slug.Make(in.Title),
		Title:                 in.Title,
		DailyProfitPercentage: in.DailyProfitPercentage,
		MinAmount:             in.MinAmount,
		MaxAmount:             in.MaxAmount,
		DurationDays:          in.DurationDays,
		IsActive:              true,
	}
	if err := s.DB.Create(plan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("a plan with code %q already exists", plan.Code)
		}
		return nil, err
	}
	return plan, nil
}

// UpdatePlan edits a plan going forward. Existing investments keep the
// terms snapshotted at their creation.
func (s *PlanService) UpdatePlan(id string, in PlanInput) (*models.InvestmentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var plan models.InvestmentPlan
	if err := s.DB.First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}

	plan.Title = in.Title
	plan.Code = slug.Make(in.Title)
	plan.DailyProfitPercentage = in.DailyProfitPercentage
	plan.MinAmount = in.MinAmount
	plan.MaxAmount = in.MaxAmount
	plan.DurationDays = in.DurationDays
	if err := s.DB.Save(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// SetPlanActive toggles catalog visibility without deleting history.
func (s *PlanService) SetPlanActive(id string, active bool) (*models.InvestmentPlan, error) {
	var plan models.InvestmentPlan
	if err := s.DB.First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	plan.IsActive = active
	if err := s.DB.Save(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}
