package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// AlertTypeTotalLimit vượt/chạm ngân sách tổng
	AlertTypeTotalLimit = "total_limit"
	// AlertTypeCategoryLimit vượt/chạm hạn mức danh mục
	AlertTypeCategoryLimit = "category_limit"
	// AlertTypeIncomeVsExpense chi tiêu vượt thu nhập trong tháng
	AlertTypeIncomeVsExpense = "income_vs_expense"
)

// Alert cảnh báo ngân sách đã lưu. Không sửa sau khi tạo; người dùng chỉ
// xóa từng cái hoặc xóa tất cả. Hai cảnh báo cùng user không được trùng
// nguyên văn message (quy tắc chống lặp của bộ điều phối).
type Alert struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	Message     string         `json:"message" gorm:"size:500;not null"`
	Type        string         `json:"type" gorm:"size:30;not null;index"` // total_limit/category_limit/income_vs_expense
	TriggeredAt time.Time      `json:"triggered_at" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Alert) TableName() string {
	return "alerts"
}

// ValidAlertType kiểm tra type có thuộc tập được phép lưu không
func ValidAlertType(t string) bool {
	switch t {
	case AlertTypeTotalLimit, AlertTypeCategoryLimit, AlertTypeIncomeVsExpense:
		return true
	}
	return false
}
