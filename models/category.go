package models

import (
	"time"

	"gorm.io/gorm"
)

// Category danh mục giao dịch (mỗi người dùng một bộ riêng)
type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:50;not null;index:idx_user_category_name"`
	Color     string         `json:"color" gorm:"size:20;default:#64748b"` // mã màu, ví dụ #ef4444
	Sort      int            `json:"sort" gorm:"default:0;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCategories danh mục mặc định được tạo cho người dùng mới
func DefaultCategories() []Category {
	return []Category{
		{Name: "Ăn uống", Sort: 10, Color: "#ef4444"},
		{Name: "Di chuyển", Sort: 20, Color: "#3b82f6"},
		{Name: "Mua sắm", Sort: 30, Color: "#a855f7"},
		{Name: "Giải trí", Sort: 40, Color: "#ec4899"},
		{Name: "Y tế", Sort: 50, Color: "#10b981"},
		{Name: "Giáo dục", Sort: 60, Color: "#f59e0b"},
		{Name: "Nhà ở", Sort: 70, Color: "#14b8a6"},
		{Name: "Lương", Sort: 80, Color: "#22c55e"},
		{Name: "Khác", Sort: 90, Color: "#64748b"},
	}
}
