package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/feedmix/internal/model"
)

// UserRepository 账号仓储
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// GetByID 不存在时返回 gorm.ErrRecordNotFound
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
