package model

import "time"

// User 账号（关系链与内容的主体）
type User struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username       string    `json:"username" gorm:"type:varchar(255);uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"type:varchar(255)"`
	FullName       string    `json:"full_name" gorm:"type:varchar(255)"`
	ProfilePicture *string   `json:"profile_picture,omitempty" gorm:"type:varchar(255)"`
	Bio            string    `json:"bio,omitempty" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
