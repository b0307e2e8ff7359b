package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvestmentPlan is the admin-editable catalog entry. Plan terms are
// snapshotted onto each Investment at creation, so edits here never
// change the rate of money already invested.
type InvestmentPlan struct {
	ID                    string           `gorm:"primaryKey;type:uuid" json:"id"`
	Code                  string           `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Title                 string           `gorm:"size:100;not null" json:"title"`
	DailyProfitPercentage decimal.Decimal  `gorm:"type:decimal(5,2);not null" json:"daily_profit_percentage"`
	MinAmount             decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"min_amount"`
	MaxAmount             *decimal.Decimal `gorm:"type:decimal(15,2)" json:"max_amount,omitempty"` // nil = unbounded
	DurationDays          int              `gorm:"not null" json:"duration_days"`
	IsActive              bool             `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	DeletedAt             gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (InvestmentPlan) TableName() string {
	return "investment_plans"
}
