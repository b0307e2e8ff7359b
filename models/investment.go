package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of an investment.
type InvestmentStatus string

const (
	InvestmentStatusActive    InvestmentStatus = "active"
	InvestmentStatusCompleted InvestmentStatus = "completed"
	InvestmentStatusCancelled InvestmentStatus = "cancelled"
)

// MaxActiveInvestmentsPerUser caps how many investments a user may hold
// in the active state at once.
const MaxActiveInvestmentsPerUser = 3

// Investment is a locked, interest-bearing position created from an
// approved deposit. Plan terms (percentage, duration) are copied at
// creation, not referenced live.
type Investment struct {
	ID                    string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID                string           `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID                string           `gorm:"type:uuid;not null;index" json:"plan_id"`
	Reference             string           `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	CryptoType            string           `gorm:"size:16;not null" json:"crypto_type"`
	Amount                decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount"`
	DailyProfitPercentage decimal.Decimal  `gorm:"type:decimal(5,2);not null" json:"daily_profit_percentage"`
	DurationDays          int              `gorm:"not null" json:"duration_days"`
	StartDate             time.Time        `gorm:"not null" json:"start_date"`
	EndDate               time.Time        `gorm:"not null;index" json:"end_date"`
	Status                InvestmentStatus `gorm:"size:16;not null;default:'active';index" json:"status"`
	CurrentBalance        decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"current_balance"`
	TotalEarned           decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"total_earned"`
	LockedAmount          decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"locked_amount"`
	LastAccrualDate       *time.Time       `json:"last_accrual_date,omitempty"`
	WithdrawalLockUntil   *time.Time       `json:"withdrawal_lock_until,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

func (Investment) TableName() string {
	return "investments"
}

// AccrualRecord is one day's credited profit for one investment. The
// unique (investment_id, accrual_date) pair is the idempotency guard
// for the daily batch: a second insert for the same day fails and is
// treated as already applied.
type AccrualRecord struct {
	ID           string          `gorm:"primaryKey;type:uuid" json:"id"`
	InvestmentID string          `gorm:"type:uuid;not null;uniqueIndex:idx_accrual_day" json:"investment_id"`
	AccrualDate  time.Time       `gorm:"not null;uniqueIndex:idx_accrual_day" json:"accrual_date"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (AccrualRecord) TableName() string {
	return "accrual_records"
}

// MaturityEventKind distinguishes normal maturity from admin cancellation.
type MaturityEventKind string

const (
	MaturityEventMatured   MaturityEventKind = "matured"
	MaturityEventCancelled MaturityEventKind = "cancelled"
)

// MaturityEvent records the one-time principal release of an investment.
// The unique investment_id makes the release idempotent under repeated
// batch invocation.
type MaturityEvent struct {
	ID           string            `gorm:"primaryKey;type:uuid" json:"id"`
	InvestmentID string            `gorm:"type:uuid;not null;uniqueIndex" json:"investment_id"`
	Kind         MaturityEventKind `gorm:"size:16;not null" json:"kind"`
	Amount       decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (MaturityEvent) TableName() string {
	return "maturity_events"
}
