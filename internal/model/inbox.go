package model

import "time"

// Inbox 时间线项（按 user_id 切分）
type Inbox struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID int64  `gorm:"index:idx_inbox_user;uniqueIndex:ux_inbox_user_post"`
	PostID int64  `gorm:"index:idx_inbox_post;uniqueIndex:ux_inbox_user_post"`
	// 复合唯一键，避免重复 (user, post)
	Score     int64     `gorm:"index:idx_inbox_user_score"`
	CreatedAt time.Time `gorm:"index:idx_inbox_user_score"`
}

func (Inbox) TableName() string { return "inbox" }
