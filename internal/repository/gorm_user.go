package repository

import (
	"context"
	"fmt"

	"apexpay/internal/domain"

	"gorm.io/gorm"
)

type gormUserRepository struct {
	db *gorm.DB
}

func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", domain.ErrUserExists, user.Email)
		}
		return classify(err)
	}
	return nil
}

func (r *gormUserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

func (r *gormUserRepository) Update(ctx context.Context, user *domain.User) error {
	return classify(r.db.WithContext(ctx).Model(user).Select("password", "first_name", "last_name", "role", "is_active").Updates(user).Error)
}

// List returns one page of users with their wallets preloaded
func (r *gormUserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}
	var users []domain.User
	if err := r.db.WithContext(ctx).Preload("Wallet").Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, classify(err)
	}
	return users, total, nil
}
