package repository

import (
	"context"

	"apexpay/internal/domain"

	"gorm.io/gorm"
)

type gormTransactionRepository struct {
	db *gorm.DB
}

// newestFirst is the creation order of the ledger, id breaking timestamp ties
const newestFirst = "created_at DESC, id DESC"

const oldestFirst = "created_at ASC, id ASC"

func (r *gormTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	return classify(r.db.WithContext(ctx).Create(tx).Error)
}

func (r *gormTransactionRepository) GetByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := r.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		return nil, classify(err)
	}
	return &tx, nil
}

func (r *gormTransactionRepository) LastOfType(ctx context.Context, userID uint, txType domain.TransactionType) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND transaction_type = ?", userID, txType).
		Order(newestFirst).
		Take(&tx).Error
	if err != nil {
		return nil, classify(err)
	}
	return &tx, nil
}

func (r *gormTransactionRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	txs := []domain.Transaction{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(oldestFirst).Find(&txs).Error; err != nil {
		return nil, classify(err)
	}
	return txs, nil
}

func (r *gormTransactionRepository) ListByType(ctx context.Context, userID uint, txType domain.TransactionType) ([]domain.Transaction, error) {
	txs := []domain.Transaction{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND transaction_type = ?", userID, txType).
		Order(oldestFirst).
		Find(&txs).Error
	if err != nil {
		return nil, classify(err)
	}
	return txs, nil
}

func (r *gormTransactionRepository) ListByTypeAndStatus(ctx context.Context, userID uint, txType domain.TransactionType, status domain.TransactionStatus) ([]domain.Transaction, error) {
	txs := []domain.Transaction{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND transaction_type = ? AND status = ?", userID, txType, status).
		Order(oldestFirst).
		Find(&txs).Error
	if err != nil {
		return nil, classify(err)
	}
	return txs, nil
}

func (r *gormTransactionRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.TransactionStatus) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidStatusTransition
	}
	return nil
}

// List applies the admin filters and returns one page, newest first
func (r *gormTransactionRepository) List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		query = query.Where("transaction_type = ?", f.Type)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.From != nil {
		query = query.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("created_at <= ?", *f.To)
	}
	query = query.Session(&gorm.Session{}) // reusable for count and page
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}
	txs := []domain.Transaction{}
	if err := query.Order(newestFirst).Offset(f.Offset).Limit(f.Limit).Find(&txs).Error; err != nil {
		return nil, 0, classify(err)
	}
	return txs, total, nil
}
