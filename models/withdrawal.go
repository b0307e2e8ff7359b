package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

// Withdrawal is a user's request to take funds out. Created pending with
// the amount reserved against the ledger; admin action settles (debits
// once) or rejects (releases the reservation).
type Withdrawal struct {
	ID            string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount        decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount"`
	CryptoType    string           `gorm:"size:16;not null" json:"crypto_type"`
	WalletAddress string           `gorm:"size:128;not null" json:"wallet_address"`
	Status        WithdrawalStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`
	Reference     string           `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	AdminID       *string          `gorm:"type:uuid" json:"admin_id,omitempty"`
	AdminNotes    string           `gorm:"type:text" json:"admin_notes,omitempty"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
