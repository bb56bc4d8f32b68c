package model

import "time"

// Post 内容主体，AuthorID 引用 users.id（级联删除）
type Post struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Description string    `json:"description" gorm:"type:varchar(255);not null"`
	AuthorID    int64     `json:"author_id" gorm:"index:idx_post_author;not null"`
	Author      *User     `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Image       *string   `json:"image,omitempty" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

func (Post) TableName() string { return "posts" }
