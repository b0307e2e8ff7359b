package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"crypto-invest-platform/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FundingService applies manual, audited balance adjustments. The
// funding transaction's unique reference is the retry guard: the audit
// row and the ledger movement share one transaction, so a replayed call
// either finds the prior row or applies exactly once.
type FundingService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewFundingService(db *gorm.DB, ledger *LedgerService) *FundingService {
	return &FundingService{DB: db, Ledger: ledger}
}

type FundingRequest struct {
	UserID          string             `json:"user_id"`
	AdminID         string             `json:"admin_id"`
	Amount          decimal.Decimal    `json:"amount"`
	CryptoType      string             `json:"crypto_type"`
	TransactionType models.FundingType `json:"transaction_type"`
	Description     string             `json:"description"`
	NotifyUser      bool               `json:"notify_user"`
	Reference       string             `json:"reference"` // optional idempotency key
}

var fundingLedgerKinds = map[models.FundingType]models.LedgerEntryKind{
	models.FundingTypeBonus:      models.LedgerKindAdminBonus,
	models.FundingTypeDeposit:    models.LedgerKindAdminDeposit,
	models.FundingTypeRefund:     models.LedgerKindAdminRefund,
	models.FundingTypeCorrection: models.LedgerKindAdminCorrection,
}

// Fund records one AdminFundingTransaction and moves the balance once.
// A negative amount is only legal for corrections and debits instead of
// credits; it still fails cleanly on insufficient funds.
func (f *FundingService) Fund(req FundingRequest) (*models.AdminFundingTransaction, error) {
	if req.UserID == "" || req.AdminID == "" {
		return nil, fmt.Errorf("user id and admin id are required")
	}
	ledgerKind, ok := fundingLedgerKinds[req.TransactionType]
	if !ok {
		return nil, fmt.Errorf("unknown funding type %q", req.TransactionType)
	}
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("funding amount must be non-zero")
	}
	if req.Amount.IsNegative() && req.TransactionType != models.FundingTypeCorrection {
		return nil, fmt.Errorf("negative amounts are only allowed for corrections")
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = "FND-" + uuid.NewString()
	}
	cryptoType := strings.ToUpper(strings.TrimSpace(req.CryptoType))
	if cryptoType == "" {
		cryptoType = "USDT"
	}

	txn := &models.AdminFundingTransaction{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		AdminID:         req.AdminID,
		Amount:          req.Amount,
		CryptoType:      cryptoType,
		TransactionType: req.TransactionType,
		Reference:       reference,
		Description:     req.Description,
		NotifyUser:      req.NotifyUser,
	}

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReference
			}
			return err
		}

		mutation := LedgerMutation{
			UserID:      req.UserID,
			Amount:      req.Amount.Abs(),
			Kind:        ledgerKind,
			Reference:   "LDG-" + reference,
			Description: fundingDescription(req),
		}
		if req.Amount.IsNegative() {
			return f.Ledger.DebitTx(tx, mutation)
		}
		return f.Ledger.CreditTx(tx, mutation)
	})
	if errors.Is(err, ErrDuplicateReference) {
		// Retried call: hand back what the first attempt recorded.
		var prior models.AdminFundingTransaction
		if lookupErr := f.DB.First(&prior, "reference = ?", reference).Error; lookupErr != nil {
			return nil, lookupErr
		}
		return &prior, nil
	}
	if err != nil {
		return nil, err
	}

	if req.NotifyUser {
		f.enqueueFundingNotice(txn)
	}
	return txn, nil
}

// ListTransactions returns the audit trail, most recent first,
// optionally filtered to one user.
func (f *FundingService) ListTransactions(userID string, limit int) ([]models.AdminFundingTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := f.DB.Order("created_at DESC").Limit(limit)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	var txns []models.AdminFundingTransaction
	err := query.Find(&txns).Error
	return txns, err
}

func (f *FundingService) enqueueFundingNotice(txn *models.AdminFundingTransaction) {
	verb := "credited to"
	if txn.Amount.IsNegative() {
		verb = "deducted from"
	}
	notice := models.Notification{
		ID:      uuid.NewString(),
		UserID:  txn.UserID,
		Subject: fmt.Sprintf("Account %s applied", txn.TransactionType),
		Body: fmt.Sprintf("An amount of %s %s was %s your account. %s",
			txn.Amount.Abs(), txn.CryptoType, verb, txn.Description),
	}
	if err := f.DB.Create(&notice).Error; err != nil {
		// Funding already committed; a lost email never rolls it back.
		log.Printf("[FUNDING] failed to enqueue notification for %s: %v", txn.UserID, err)
	}
}

func fundingDescription(req FundingRequest) string {
	if req.Description != "" {
		return req.Description
	}
	return fmt.Sprintf("Admin %s by %s", req.TransactionType, req.AdminID)
}
