package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"quanlychitieu/database"
	"quanlychitieu/models"
)

// AlertService đánh giá ngưỡng ngân sách sau mỗi thay đổi giao dịch,
// chống lặp cảnh báo và phát thông báo cho người dùng.
//
// Nguyên tắc: việc cảnh báo là best-effort. Mọi lỗi bên trong (CSDL, mail...)
// chỉ ghi log và bỏ qua, không bao giờ làm hỏng thao tác ghi giao dịch
// đã thành công trước đó.
type AlertService struct {
	notifier *Notifier
	bus      *Bus

	// khóa theo (user, tháng) để đóng cửa sổ đua check-then-act
	// giữa hai request ghi đồng thời của cùng một người dùng
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewAlertService tạo dịch vụ cảnh báo
func NewAlertService(notifier *Notifier, bus *Bus) *AlertService {
	return &AlertService{
		notifier: notifier,
		bus:      bus,
		locks:    make(map[string]*sync.Mutex),
	}
}

// periodLock lấy (hoặc tạo) mutex cho một cặp (user, tháng)
func (s *AlertService) periodLock(userID uint, monthKey string) *sync.Mutex {
	key := fmt.Sprintf("%d/%s", userID, monthKey)
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	return mu
}

// IsDuplicateAlert kiểm tra đã tồn tại cảnh báo trùng nguyên văn message chưa.
// So khớp tuyệt đối, phân biệt hoa thường. Nếu truy vấn lỗi thì coi như
// KHÔNG trùng (fail-open): thà chèn dư một cảnh báo còn hơn nuốt mất nó
// vì một lỗi tạm thời của CSDL.
func (s *AlertService) IsDuplicateAlert(userID uint, message string) bool {
	var count int64
	err := database.DB.Model(&models.Alert{}).
		Where("user_id = ? AND message = ?", userID, message).
		Count(&count).Error
	if err != nil {
		log.Printf("kiểm tra trùng cảnh báo thất bại (user %d): %v", userID, err)
		return false
	}
	return count > 0
}

// persistAlert lưu cảnh báo, lỗi chỉ ghi log
func (s *AlertService) persistAlert(userID uint, message, alertType string) {
	alert := models.Alert{
		UserID:      userID,
		Message:     message,
		Type:        alertType,
		TriggeredAt: time.Now(),
	}
	if err := database.DB.Create(&alert).Error; err != nil {
		log.Printf("lưu cảnh báo thất bại (user %d, type %s): %v", userID, alertType, err)
	}
}

// handleResult xử lý một kết quả đánh giá: thông báo trước, lưu sau.
// Thông báo phải đến người dùng kể cả khi ghi CSDL thất bại.
// Chỉ cảnh báo "exceeded" mới chống lặp trước khi lưu; "warning" chèn thẳng —
// giữ nguyên sự bất đối xứng của thiết kế gốc.
func (s *AlertService) handleResult(userID uint, res ThresholdResult, alertType string) {
	switch res.State {
	case ThresholdExceeded:
		s.notifier.NotifyExceeded(userID, res.Message)
		if s.IsDuplicateAlert(userID, res.Message) {
			return
		}
		s.persistAlert(userID, res.Message, alertType)
	case ThresholdWarning:
		s.notifier.Notify(userID, NotifyWarning, res.Message)
		s.persistAlert(userID, res.Message, alertType)
	}
}

// CheckAfterExpenseChange điểm vào của bộ điều phối cảnh báo: gọi sau khi
// một giao dịch chi tiêu được tạo/sửa/xóa. occurredAt xác định tháng cần
// đánh giá; categoryID là danh mục bị ảnh hưởng (0 nếu không rõ).
//
// Không bao giờ trả lỗi: mỗi lần gọi đánh giá lại từ đầu theo tổng hiện tại,
// thất bại ở bước nào thì bước đó không sinh cảnh báo.
func (s *AlertService) CheckAfterExpenseChange(userID, categoryID uint, occurredAt time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("đánh giá cảnh báo bị panic (user %d): %v", userID, r)
		}
	}()

	monthKey := models.MonthKey(occurredAt)
	mu := s.periodLock(userID, monthKey)
	mu.Lock()
	defer mu.Unlock()

	// Báo cho client biết dữ liệu giao dịch đã đổi
	if s.bus != nil {
		s.bus.Publish(Event{Kind: EventTransactionsChanged, UserID: userID})
	}

	monthStart := time.Date(occurredAt.Year(), occurredAt.Month(), 1, 0, 0, 0, 0, occurredAt.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	totalIncome, totalExpense, err := s.sumByType(userID, monthStart, monthEnd)
	if err != nil {
		log.Printf("thống kê thu chi thất bại (user %d): %v", userID, err)
		return
	}

	// 1. Ngân sách tổng của tháng
	var budget models.Budget
	if err := database.DB.Where("user_id = ? AND month = ?", userID, monthKey).
		First(&budget).Error; err == nil {
		res := EvaluateThreshold(totalExpense, budget.Amount, Scope{Kind: ScopeTotal})
		s.handleResult(userID, res, models.AlertTypeTotalLimit)
	}

	// 2. Hạn mức của danh mục bị ảnh hưởng
	if categoryID != 0 {
		s.checkCategoryBudget(userID, categoryID, monthKey, monthStart, monthEnd)
	}

	// 3. Chi tiêu vượt thu nhập trong tháng
	if totalIncome > 0 && totalExpense > totalIncome {
		msg := fmt.Sprintf("Chi tiêu tháng %s đã vượt quá thu nhập", monthKey)
		s.notifier.Notify(userID, NotifyWarning, msg)
		if !s.IsDuplicateAlert(userID, msg) {
			s.persistAlert(userID, msg, models.AlertTypeIncomeVsExpense)
		}
	}
}

// checkCategoryBudget đánh giá hạn mức của một danh mục trong tháng
func (s *AlertService) checkCategoryBudget(userID, categoryID uint, monthKey string, monthStart, monthEnd time.Time) {
	var catBudget models.CategoryBudget
	if err := database.DB.
		Where("user_id = ? AND category_id = ? AND month = ?", userID, categoryID, monthKey).
		First(&catBudget).Error; err != nil {
		return // danh mục chưa đặt hạn mức
	}

	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", categoryID, userID).
		First(&category).Error; err != nil {
		log.Printf("đọc danh mục %d thất bại (user %d): %v", categoryID, userID, err)
		return
	}

	var spent float64
	err := database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND category_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?",
			userID, categoryID, models.TransactionTypeExpense, monthStart, monthEnd).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&spent).Error
	if err != nil {
		log.Printf("thống kê chi theo danh mục thất bại (user %d): %v", userID, err)
		return
	}

	res := EvaluateThreshold(spent, catBudget.Limit, Scope{Kind: ScopeCategory, Name: category.Name})
	s.handleResult(userID, res, models.AlertTypeCategoryLimit)
}

// sumByType tổng thu và tổng chi của người dùng trong [start, end)
func (s *AlertService) sumByType(userID uint, start, end time.Time) (income, expense float64, err error) {
	err = database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?",
			userID, models.TransactionTypeIncome, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&income).Error
	if err != nil {
		return 0, 0, err
	}

	err = database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?",
			userID, models.TransactionTypeExpense, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&expense).Error
	if err != nil {
		return 0, 0, err
	}
	return income, expense, nil
}
