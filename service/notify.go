package service

import (
	"log"

	"quanlychitieu/database"
	"quanlychitieu/models"
)

const (
	// NotifyInfo thông báo thường
	NotifyInfo = "info"
	// NotifyWarning thông báo cảnh báo
	NotifyWarning = "warning"
	// NotifyError thông báo lỗi
	NotifyError = "error"
)

// NotificationSink nơi nhận thông báo hiển thị cho người dùng.
// Gửi thông báo là fire-and-forget: lỗi chỉ ghi log, không trả về.
type NotificationSink interface {
	Notify(userID uint, kind, message string)
}

// Notifier phát thông báo lên bus sự kiện và (tùy chọn) gửi mail
// với các cảnh báo vượt ngân sách.
type Notifier struct {
	bus   *Bus
	email *EmailService
}

// NewNotifier tạo notifier
func NewNotifier(bus *Bus, email *EmailService) *Notifier {
	return &Notifier{bus: bus, email: email}
}

// Notify đẩy thông báo toast qua bus sự kiện
func (n *Notifier) Notify(userID uint, kind, message string) {
	if n.bus == nil {
		return
	}
	n.bus.Publish(Event{
		Kind:    EventNotification,
		UserID:  userID,
		Level:   kind,
		Message: message,
	})
}

// NotifyExceeded thông báo vượt ngân sách: toast + mail nếu bật.
// Gửi mail chạy nền để không chặn luồng xử lý giao dịch.
func (n *Notifier) NotifyExceeded(userID uint, message string) {
	n.Notify(userID, NotifyError, message)

	if n.email == nil || n.email.cfg == nil || !n.email.cfg.Enabled {
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		log.Printf("gửi mail cảnh báo: không tìm thấy user %d: %v", userID, err)
		return
	}
	if user.Email == "" {
		return
	}

	go func() {
		if err := n.email.SendBudgetAlertEmail(user.Email, user.Username, message); err != nil {
			log.Printf("gửi mail cảnh báo cho user %d thất bại: %v", userID, err)
		}
	}()
}
