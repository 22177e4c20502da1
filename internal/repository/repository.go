// Package repository defines the persistence contracts of the wallet core
// and their GORM implementation.
package repository

import (
	"context"
	"time"

	"apexpay/internal/domain"
)

// UserRepository stores accounts. The ledger only reads them.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, offset, limit int) ([]domain.User, int64, error)
}

// WalletRepository stores the per-user balance record.
type WalletRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*domain.Wallet, error)
	// LockByUserID reads the wallet and holds a row lock on it until the
	// surrounding transaction ends.
	LockByUserID(ctx context.Context, userID uint) (*domain.Wallet, error)
	Create(ctx context.Context, wallet *domain.Wallet) error
	Update(ctx context.Context, wallet *domain.Wallet) error
}

// TransactionFilter narrows the admin listing. Zero values are ignored.
type TransactionFilter struct {
	UserID uint
	Type   domain.TransactionType
	Status domain.TransactionStatus
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
}

// TransactionRepository stores the append-only ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id uint) (*domain.Transaction, error)
	// LastOfType returns the most recent row of the given type for the user,
	// or domain.ErrNotFound when there is none.
	LastOfType(ctx context.Context, userID uint, txType domain.TransactionType) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Transaction, error)
	ListByType(ctx context.Context, userID uint, txType domain.TransactionType) ([]domain.Transaction, error)
	ListByTypeAndStatus(ctx context.Context, userID uint, txType domain.TransactionType, status domain.TransactionStatus) ([]domain.Transaction, error)
	// UpdateStatus moves a row from one settlement status to another. It
	// returns domain.ErrInvalidStatusTransition when the row is no longer in from.
	UpdateStatus(ctx context.Context, id uint, from, to domain.TransactionStatus) error
	List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, int64, error)
}

// Store groups the repositories behind one transactional boundary.
type Store interface {
	Users() UserRepository
	Wallets() WalletRepository
	Transactions() TransactionRepository
	// WithinTx runs fn against a store bound to a single database
	// transaction. A non-nil error from fn rolls every write back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
