package repository

import (
	"context"

	"apexpay/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormWalletRepository struct {
	db *gorm.DB
}

func (r *gormWalletRepository) GetByUserID(ctx context.Context, userID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&wallet).Error; err != nil {
		return nil, classify(err)
	}
	return &wallet, nil
}

// LockByUserID issues SELECT ... FOR UPDATE. Outside a transaction the lock
// is released as soon as the statement finishes.
func (r *gormWalletRepository) LockByUserID(ctx context.Context, userID uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&wallet).Error
	if err != nil {
		return nil, classify(err)
	}
	return &wallet, nil
}

func (r *gormWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	return classify(r.db.WithContext(ctx).Create(wallet).Error)
}

func (r *gormWalletRepository) Update(ctx context.Context, wallet *domain.Wallet) error {
	res := r.db.WithContext(ctx).Model(wallet).Update("available_amount", wallet.AvailableAmount)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound)
	}
	return nil
}
