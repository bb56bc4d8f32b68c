package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/feedmix/internal/model"
)

// PostRepository 内容仓储
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	// GetByID 不存在时返回 gorm.ErrRecordNotFound
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	// ListByAuthor 按创建时间倒序
	ListByAuthor(ctx context.Context, authorID int64, limit int) ([]*model.Post, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID int64, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}
