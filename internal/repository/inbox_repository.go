package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/feedmix/internal/model"
)

// InboxRepository 时间线读取（写入由 FanoutWorker 负责）
type InboxRepository interface {
	// ListPostIDs 按 score 倒序（seek 第一页）
	ListPostIDs(ctx context.Context, userID int64, limit int) ([]int64, error)
}

type inboxRepository struct{ db *gorm.DB }

func NewInboxRepository(db *gorm.DB) InboxRepository { return &inboxRepository{db: db} }

func (r *inboxRepository) ListPostIDs(ctx context.Context, userID int64, limit int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.Inbox{}).
		Where("user_id = ?", userID).
		Order("score DESC, post_id DESC").
		Limit(limit).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
