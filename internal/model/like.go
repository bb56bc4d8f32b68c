package model

import "time"

// Like 点赞（用户对内容的反应）。不做唯一约束，读侧只判断存在性
type Like struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	PostID    int64 `gorm:"index:idx_like_user_post,priority:2;not null"`
	UserID    int64 `gorm:"index:idx_like_user_post,priority:1;not null"`
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }
