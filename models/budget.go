package models

import (
	"time"

	"gorm.io/gorm"
)

// Budget ngân sách tổng theo tháng, mỗi (user, month) chỉ có một dòng.
// Month lưu dạng "<Tên tháng tiếng Anh> <Năm>", ví dụ "May 2025" — giữ đúng
// định dạng này để tương thích với dữ liệu đã lưu.
type Budget struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Month     string         `json:"month" gorm:"size:20;not null;index:idx_user_budget_month"`
	Amount    float64        `json:"amount" gorm:"type:decimal(14,2);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Budget) TableName() string {
	return "budgets"
}

// MonthKey sinh khóa tháng "<MonthName> <Year>" từ một thời điểm
func MonthKey(t time.Time) string {
	return t.Month().String() + " " + t.Format("2006")
}
