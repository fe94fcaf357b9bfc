package service

import (
	"sync"
	"time"
)

const (
	// EventNotification thông báo hiển thị cho người dùng (toast)
	EventNotification = "notification"
	// EventTransactionsChanged dữ liệu giao dịch thay đổi, client nên tải lại
	EventTransactionsChanged = "transactions_changed"
)

// Event sự kiện phát trên bus nội bộ
type Event struct {
	Kind    string    `json:"kind"`
	UserID  uint      `json:"user_id"`
	Level   string    `json:"level,omitempty"` // info/warning/error (với notification)
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Bus kênh phát/đăng ký sự kiện trong tiến trình, tách theo người dùng.
// Publish không chặn: subscriber chậm sẽ bị bỏ qua sự kiện.
type Bus struct {
	mu   sync.RWMutex
	subs map[uint]map[chan Event]struct{}
}

// NewBus tạo bus sự kiện mới
func NewBus() *Bus {
	return &Bus{subs: make(map[uint]map[chan Event]struct{})}
}

// Subscribe đăng ký nhận sự kiện của một người dùng.
// Trả về kênh nhận và hàm hủy đăng ký.
func (b *Bus) Subscribe(userID uint) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan Event]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, userID)
			}
		}
		// Đóng kênh khi vẫn giữ khóa để không đua với Publish
		close(ch)
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish phát sự kiện đến mọi subscriber của người dùng tương ứng
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
			// kênh đầy thì bỏ qua, không để chặn luồng ghi
		}
	}
}
