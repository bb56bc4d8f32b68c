package model

import "time"

// Outbox 状态
const (
	OutboxPending    = "pending"
	OutboxProcessing = "processing"
	OutboxDone       = "done"
)

// Outbox 发布事件外发盒，由 FanoutWorker 扇出到粉丝 inbox
type Outbox struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	PostID      int64     `gorm:"uniqueIndex"`
	AuthorID    int64     `gorm:"index:idx_outbox_author"`
	CreatedAt   time.Time `gorm:"index"`
	Status      string    `gorm:"type:varchar(16);index"`
	ProcessedAt *time.Time
	FanoutCount int64
}

func (Outbox) TableName() string { return "outbox" }
