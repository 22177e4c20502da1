package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet Model
type Wallet struct {
	ID              uint            `gorm:"primaryKey" json:"id"`                                         // Primary key
	UserID          uint            `gorm:"uniqueIndex;not null" json:"user_id"`                          // Foreign key to User
	AvailableAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"available_amount"` // Never negative after a commit
	UpdatedAt       time.Time       `json:"updated_at"`                                                   // Last balance change
}

// Credit adds amount to the available balance
func (w *Wallet) Credit(amount decimal.Decimal) {
	w.AvailableAmount = w.AvailableAmount.Add(amount)
}

// Debit removes amount from the available balance, refusing to go below zero
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if w.AvailableAmount.LessThan(amount) {
		return ErrInsufficientFunds
	}
	w.AvailableAmount = w.AvailableAmount.Sub(amount)
	return nil
}
