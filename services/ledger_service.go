package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"crypto-invest-platform/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService owns every mutation of UserLedger. Handlers and the batch
// processors go through Credit/Debit (or their tx-scoped variants) — raw
// field writes are off limits so the aggregates stay derivable from the
// entry log.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// LedgerMutation describes one attributable balance movement. Amount is
// always positive; direction comes from calling Credit or Debit.
// Reference is the idempotency key — replaying a mutation with a used
// reference rolls back and reports ErrDuplicateReference.
type LedgerMutation struct {
	UserID      string
	Amount      decimal.Decimal
	Kind        models.LedgerEntryKind
	Reference   string
	Description string
}

// Credit applies a positive balance movement in its own transaction.
func (s *LedgerService) Credit(m LedgerMutation) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CreditTx(tx, m)
	})
}

// Debit applies a negative balance movement in its own transaction.
func (s *LedgerService) Debit(m LedgerMutation) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.DebitTx(tx, m)
	})
}

// CreditTx is Credit composed into a caller-owned transaction, used by
// the processors so the ledger movement commits or rolls back with the
// rest of their per-item step.
func (s *LedgerService) CreditTx(tx *gorm.DB, m LedgerMutation) error {
	if err := validateMutation(m); err != nil {
		return err
	}
	ledger, err := s.lockLedgerTx(tx, m.UserID)
	if err != nil {
		return err
	}

	// New aggregate values are computed here in decimal arithmetic and
	// written as concrete numbers. In-database addition would run the
	// bound decimals through the store's float path and drift off the
	// cent grid.
	newBalance := ledger.Balance.Add(m.Amount)
	updates := map[string]interface{}{"balance": newBalance}
	switch m.Kind {
	case models.LedgerKindDeposit:
		// Principal goes straight into the locked investment, not the
		// spendable balance.
		newBalance = ledger.Balance
		updates = map[string]interface{}{
			"funded":         ledger.Funded.Add(m.Amount),
			"active_deposit": ledger.ActiveDeposit.Add(m.Amount),
		}
	case models.LedgerKindAdminDeposit:
		updates["funded"] = ledger.Funded.Add(m.Amount)
	case models.LedgerKindAdminBonus:
		updates["total_bonus"] = ledger.TotalBonus.Add(m.Amount)
	case models.LedgerKindMaturityRelease:
		updates["active_deposit"] = ledger.ActiveDeposit.Sub(m.Amount)
	case models.LedgerKindReferralCommission:
		updates["referral_commission"] = ledger.ReferralCommission.Add(m.Amount)
	}

	res := tx.Model(&models.UserLedger{}).Where("user_id = ?", m.UserID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	return s.appendEntry(tx, m, m.Amount, newBalance)
}

// DebitTx fails with ErrInsufficientFunds, writing nothing, if the
// spendable balance cannot cover the amount.
func (s *LedgerService) DebitTx(tx *gorm.DB, m LedgerMutation) error {
	if err := validateMutation(m); err != nil {
		return err
	}
	ledger, err := s.lockLedgerTx(tx, m.UserID)
	if err != nil {
		return err
	}

	// The row lock serializes concurrent debits: the loser waits, then
	// reads a balance the winner already reduced, so this check cannot
	// let the balance go negative.
	if ledger.Balance.LessThan(m.Amount) {
		return ErrInsufficientFunds
	}

	newBalance := ledger.Balance.Sub(m.Amount)
	updates := map[string]interface{}{"balance": newBalance}
	switch m.Kind {
	case models.LedgerKindWithdrawal:
		updates["total_withdrawal"] = ledger.TotalWithdrawal.Add(m.Amount)
		updates["pending_withdrawal"] = ledger.PendingWithdrawal.Sub(m.Amount)
	case models.LedgerKindPenalty:
		updates["total_penalty"] = ledger.TotalPenalty.Add(m.Amount)
	}

	res := tx.Model(&models.UserLedger{}).Where("user_id = ?", m.UserID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	return s.appendEntry(tx, m, m.Amount.Neg(), newBalance)
}

// ReservePendingTx earmarks part of the spendable balance for a pending
// withdrawal without moving it. Reservations can never exceed the
// unreserved balance.
func (s *LedgerService) ReservePendingTx(tx *gorm.DB, userID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("reservation amount must be positive")
	}
	ledger, err := s.lockLedgerTx(tx, userID)
	if err != nil {
		return err
	}
	if ledger.Balance.Sub(ledger.PendingWithdrawal).LessThan(amount) {
		return ErrInsufficientFunds
	}
	return tx.Model(&models.UserLedger{}).
		Where("user_id = ?", userID).
		Update("pending_withdrawal", ledger.PendingWithdrawal.Add(amount)).Error
}

// ReleasePendingTx undoes a reservation after a rejection or expiry.
func (s *LedgerService) ReleasePendingTx(tx *gorm.DB, userID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("release amount must be positive")
	}
	ledger, err := s.lockLedgerTx(tx, userID)
	if err != nil {
		return err
	}
	if ledger.PendingWithdrawal.LessThan(amount) {
		return fmt.Errorf("reservation release exceeds pending withdrawal for user %s", userID)
	}
	return tx.Model(&models.UserLedger{}).
		Where("user_id = ?", userID).
		Update("pending_withdrawal", ledger.PendingWithdrawal.Sub(amount)).Error
}

// GetLedger returns the aggregate row, creating it on first touch.
func (s *LedgerService) GetLedger(userID string) (*models.UserLedger, error) {
	var ledger models.UserLedger
	err := s.DB.Where(models.UserLedger{UserID: userID}).
		Attrs(models.UserLedger{ID: uuid.NewString()}).
		FirstOrCreate(&ledger).Error
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// ListEntries returns the most recent audit entries for a user.
func (s *LedgerService) ListEntries(userID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.LedgerEntry
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// ensureLedger creates the aggregate row on a user's first mutation.
// The struct condition doubles as the creation attributes, so the new
// row carries the user id.
func (s *LedgerService) ensureLedger(tx *gorm.DB, userID string) error {
	var ledger models.UserLedger
	return tx.Where(models.UserLedger{UserID: userID}).
		Attrs(models.UserLedger{ID: uuid.NewString()}).
		FirstOrCreate(&ledger).Error
}

// lockLedgerTx takes the write lock the ledger row's UPDATE holds until
// the transaction commits, then reads the row as of that moment. Every
// mutation for one user serializes on this lock, which is what makes
// the values computed in Go authoritative when they land.
func (s *LedgerService) lockLedgerTx(tx *gorm.DB, userID string) (*models.UserLedger, error) {
	if err := s.ensureLedger(tx, userID); err != nil {
		return nil, err
	}
	err := tx.Model(&models.UserLedger{}).
		Where("user_id = ?", userID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return nil, err
	}
	var ledger models.UserLedger
	if err := tx.First(&ledger, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &ledger, nil
}

// LockTx serializes the caller's transaction against every other ledger
// mutation for the user. Used where an invariant spans more than the
// ledger row itself, like the active-investment cap.
func (s *LedgerService) LockTx(tx *gorm.DB, userID string) error {
	_, err := s.lockLedgerTx(tx, userID)
	return err
}

func (s *LedgerService) appendEntry(tx *gorm.DB, m LedgerMutation, signed, balanceAfter decimal.Decimal) error {
	entry := models.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       m.UserID,
		Kind:         m.Kind,
		Amount:       signed,
		BalanceAfter: balanceAfter,
		Reference:    m.Reference,
		Description:  m.Description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("[LEDGER] duplicate reference %s for user %s, rolling back", m.Reference, m.UserID)
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

func validateMutation(m LedgerMutation) error {
	if m.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if m.Reference == "" {
		return fmt.Errorf("reference is required")
	}
	if !m.Amount.IsPositive() {
		return fmt.Errorf("mutation amount must be positive, got %s", m.Amount)
	}
	return nil
}
