package models

import (
	"time"

	"gorm.io/gorm"
)

// CategoryBudget hạn mức chi tiêu theo danh mục trong một tháng.
// Mỗi (user, category, month) chỉ có một dòng: lần đặt sau phải cập nhật
// dòng cũ thay vì chèn thêm, nếu không phần trăm sẽ bị tính sai.
type CategoryBudget struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"index;not null"`
	CategoryID uint           `json:"category_id" gorm:"index;not null"`
	Month      string         `json:"month" gorm:"size:20;not null;index"`
	Limit      float64        `json:"budget_limit" gorm:"column:budget_limit;type:decimal(14,2);not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	Category Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (CategoryBudget) TableName() string {
	return "category_budgets"
}
