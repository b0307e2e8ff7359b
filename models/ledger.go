package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserLedger is the per-user aggregate projection of all balance-affecting
// events. It is mutated only through the ledger service's credit/debit —
// never by handlers writing raw fields.
type UserLedger struct {
	ID                 string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID             string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance            decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	Funded             decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"funded"`
	ActiveDeposit      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"active_deposit"`
	TotalWithdrawal    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_withdrawal"`
	PendingWithdrawal  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"pending_withdrawal"`
	TotalBonus         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_bonus"`
	TotalPenalty       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_penalty"`
	ReferralCommission decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"referral_commission"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (UserLedger) TableName() string {
	return "user_ledgers"
}

// LedgerEntryKind attributes a balance mutation to exactly one source.
type LedgerEntryKind string

const (
	LedgerKindDeposit            LedgerEntryKind = "deposit"
	LedgerKindAccrual            LedgerEntryKind = "accrual"
	LedgerKindMaturityRelease    LedgerEntryKind = "maturity_release"
	LedgerKindWithdrawal         LedgerEntryKind = "withdrawal"
	LedgerKindAdminBonus         LedgerEntryKind = "admin_bonus"
	LedgerKindAdminDeposit       LedgerEntryKind = "admin_deposit"
	LedgerKindAdminRefund        LedgerEntryKind = "admin_refund"
	LedgerKindAdminCorrection    LedgerEntryKind = "admin_correction"
	LedgerKindReferralCommission LedgerEntryKind = "referral_commission"
	LedgerKindPenalty            LedgerEntryKind = "penalty"
)

// LedgerEntry is the append-only audit log behind UserLedger. Amount is
// signed: positive for credits, negative for debits. Reference is unique
// so a replayed mutation is a no-op instead of a double apply.
type LedgerEntry struct {
	ID           string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind         LedgerEntryKind `gorm:"size:32;not null;index" json:"kind"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_after"`
	Reference    string          `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	Description  string          `gorm:"type:text" json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
