package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// ChatSourceOracle trả lời từ mô hình ngôn ngữ
	ChatSourceOracle = "oracle"
	// ChatSourceFallback trả lời từ bộ phân tích lệnh dự phòng
	ChatSourceFallback = "fallback"
)

// ChatMessage lịch sử trò chuyện (một lượt: người dùng hỏi + bot trả lời)
type ChatMessage struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	UserText  string         `json:"user_text" gorm:"type:text;not null"`
	BotText   string         `json:"bot_text" gorm:"type:text;not null"`
	Source    string         `json:"source" gorm:"size:20;not null"` // oracle/fallback
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
