package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// UserStatusLocked khóa: không cho đăng nhập
	UserStatusLocked = "locked"
	// UserStatusActive bình thường: được đăng nhập
	UserStatusActive = "active"
)

// User người dùng
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password  string         `json:"-" gorm:"size:255;not null"`
	Email     string         `json:"email" gorm:"size:100"`
	Status    string         `json:"status" gorm:"size:20;default:active;index"` // trạng thái: locked/active
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName đặt tên bảng
func (User) TableName() string {
	return "users"
}
