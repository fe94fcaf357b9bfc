package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// TransactionTypeIncome giao dịch thu nhập
	TransactionTypeIncome = "income"
	// TransactionTypeExpense giao dịch chi tiêu
	TransactionTypeExpense = "expense"
)

// Transaction giao dịch thu/chi của một người dùng
type Transaction struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"index;not null"`
	CategoryID uint           `json:"category_id" gorm:"index;not null"`
	Type       string         `json:"type" gorm:"size:10;not null;index"` // income/expense
	Amount     float64        `json:"amount" gorm:"type:decimal(14,2);not null"`
	Note       string         `json:"note" gorm:"size:255"`
	OccurredAt time.Time      `json:"occurred_at" gorm:"not null;index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	User     User     `json:"-" gorm:"foreignKey:UserID"`
	Category Category `json:"-" gorm:"foreignKey:CategoryID"`
}

// TableName đặt tên bảng
func (Transaction) TableName() string {
	return "transactions"
}

// IsExpense giao dịch có phải chi tiêu không
func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}
