package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore is the MySQL-backed Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository               { return &gormUserRepository{db: s.db} }
func (s *GormStore) Wallets() WalletRepository           { return &gormWalletRepository{db: s.db} }
func (s *GormStore) Transactions() TransactionRepository { return &gormTransactionRepository{db: s.db} }

// WithinTx runs fn inside db.Transaction. Errors returned by fn are already
// classified and pass through untouched; begin/commit failures are classified here.
func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&GormStore{db: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return classify(err)
}

// Ping checks the underlying connection pool
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return classify(err)
	}
	return classify(sqlDB.PingContext(ctx))
}
