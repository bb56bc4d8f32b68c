package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedmix/internal/model"
)

// Publisher 负责事务内写 posts + outbox
type Publisher struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPublisher(db *gorm.DB) *Publisher { return &Publisher{db: db, now: time.Now} }

// Publish 在一个事务内落地 Post 与 Outbox 事件，返回新内容 ID
func (p *Publisher) Publish(ctx context.Context, authorID int64, description string, image *string) (int64, error) {
	now := p.now()
	post := &model.Post{Description: description, AuthorID: authorID, Image: image, CreatedAt: now}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		out := &model.Outbox{ID: uuid.New().String(), PostID: post.ID, AuthorID: authorID, CreatedAt: now, Status: model.OutboxPending}
		return tx.Create(out).Error
	})
	if err != nil {
		return 0, err
	}
	return post.ID, nil
}
