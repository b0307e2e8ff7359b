package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundingType classifies a manual admin balance adjustment.
type FundingType string

const (
	FundingTypeBonus      FundingType = "bonus"
	FundingTypeDeposit    FundingType = "deposit"
	FundingTypeRefund     FundingType = "refund"
	FundingTypeCorrection FundingType = "correction" // may be negative
)

// AdminFundingTransaction is the append-only audit trail of manual
// balance adjustments. Reference is unique and doubles as the
// idempotency key: a retried fund call with the same reference returns
// the recorded transaction instead of applying twice.
type AdminFundingTransaction struct {
	ID              string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AdminID         string          `gorm:"type:uuid;not null;index" json:"admin_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	CryptoType      string          `gorm:"size:16;not null" json:"crypto_type"`
	TransactionType FundingType     `gorm:"size:16;not null" json:"transaction_type"`
	Reference       string          `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	Description     string          `gorm:"type:text" json:"description"`
	NotifyUser      bool            `gorm:"not null;default:false" json:"notify_user"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (AdminFundingTransaction) TableName() string {
	return "admin_funding_transactions"
}
