package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of wallet operation a ledger row records
type TransactionType string

const (
	TypeDeposit  TransactionType = "deposit"
	TypeWithdraw TransactionType = "withdraw"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TypeDeposit || t == TypeWithdraw
}

// TransactionStatus is the settlement state of a ledger row
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusProcessed  TransactionStatus = "processed"
)

// Valid reports whether s is a known settlement status
func (s TransactionStatus) Valid() bool {
	return s == StatusPending || s == StatusProcessing || s == StatusProcessed
}

// rank orders statuses along the settlement path
func (s TransactionStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusProcessed:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether settlement may move a row from s to next.
// Settlement only moves forward.
func (s TransactionStatus) CanAdvanceTo(next TransactionStatus) bool {
	return s.Valid() && next.Valid() && next.rank() > s.rank()
}

// Transaction Model. Rows are append-only for the application; only the
// settlement status moves afterwards.
type Transaction struct {
	ID              uint              `gorm:"primaryKey" json:"id"`                                                       // Primary key, tie-break of creation order
	UserID          uint              `gorm:"index:idx_tx_user_type,priority:1;not null" json:"user_id"`                  // Owning user
	TransactionType TransactionType   `gorm:"index:idx_tx_user_type,priority:2;size:16;not null" json:"transaction_type"` // deposit or withdraw
	Amount          decimal.Decimal   `gorm:"type:decimal(20,2);not null" json:"amount"`                                  // Always positive
	Status          TransactionStatus `gorm:"size:16;not null;default:pending" json:"status"`                             // pending, processing, processed
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`                                                    // Ordering key
}
