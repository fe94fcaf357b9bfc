package service

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"quanlychitieu/models"
)

// Fallback bộ phân tích lệnh văn bản dự phòng, kích hoạt khi đường
// function-calling của mô hình ngôn ngữ lỗi hoặc quá thời gian chờ.
//
// Đây không phải một bản cài đặt nghiệp vụ thứ hai: mỗi mẫu lệnh chỉ trích
// tham số bằng regex rồi gọi đúng các thao tác của Dispatcher, nên quy tắc
// kiểm tra dữ liệu giống hệt đường chính.
type Fallback struct {
	dispatcher *Dispatcher
}

// NewFallback tạo bộ dự phòng
func NewFallback(dispatcher *Dispatcher) *Fallback {
	return &Fallback{dispatcher: dispatcher}
}

var (
	reHelp           = regexp.MustCompile(`^(?i)(trợ giúp|help|hướng dẫn)$`)
	reCreateCategory = regexp.MustCompile(`^(?i)tạo danh mục (.+)$`)
	reListCategories = regexp.MustCompile(`^(?i)(danh sách danh mục|xem danh mục)$`)
	reCreateExpense  = regexp.MustCompile(`^(?i)(?:thêm|tạo|ghi) chi tiêu ([\d.,]+)\s*(k)?\s+(?:cho |vào )?(.+)$`)
	reCreateIncome   = regexp.MustCompile(`^(?i)(?:thêm|tạo|ghi) thu nhập ([\d.,]+)\s*(k)?\s+(?:cho |vào )?(.+)$`)
	reDeleteTx       = regexp.MustCompile(`^(?i)xóa giao dịch #?(\d+)$`)
	reThisMonth      = regexp.MustCompile(`^(?i)(giao dịch tháng này|chi tiêu tháng này)$`)
)

const fallbackHelp = `Trợ lý đang ở chế độ ngoại tuyến, bạn có thể dùng các lệnh sau:
• tạo danh mục <tên>
• thêm chi tiêu <số tiền> <danh mục>
• thêm thu nhập <số tiền> <danh mục>
• xóa giao dịch <id>
• danh sách danh mục
• giao dịch tháng này
• trợ giúp`

const fallbackApology = "Xin lỗi, tôi đang gặp sự cố khi xử lý yêu cầu. Vui lòng thử lại sau."

// parseAmount đọc số tiền kiểu "50000", "50.000", "1,200,000" hoặc "50k"
func parseAmount(s string, hasK bool) (float64, error) {
	cleaned := strings.NewReplacer(".", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("số tiền không hợp lệ: %s", s)
	}
	if hasK {
		v *= 1000
	}
	return v, nil
}

// Handle xử lý một câu lệnh văn bản. Trả về câu trả lời và cờ báo client
// cần tải lại dữ liệu. Không bao giờ panic ra ngoài: lỗi bất ngờ được đổi
// thành một câu xin lỗi chung.
func (f *Fallback) Handle(userID uint, text string) (reply string, refresh bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fallback panic (user %d): %v", userID, r)
			reply = fallbackApology
			refresh = false
		}
	}()

	text = strings.TrimSpace(text)

	switch {
	case reHelp.MatchString(text):
		return fallbackHelp, false

	case reCreateCategory.MatchString(text):
		name := strings.TrimSpace(reCreateCategory.FindStringSubmatch(text)[1])
		res := f.dispatchJSON(userID, ToolCreateCategory, createCategoryArgs{Name: name})
		return res.Message(), res.RefreshData()

	case reListCategories.MatchString(text):
		return f.listCategories(userID), false

	case reCreateExpense.MatchString(text):
		m := reCreateExpense.FindStringSubmatch(text)
		return f.createFromText(userID, models.TransactionTypeExpense, m[1], m[2] != "", m[3])

	case reCreateIncome.MatchString(text):
		m := reCreateIncome.FindStringSubmatch(text)
		return f.createFromText(userID, models.TransactionTypeIncome, m[1], m[2] != "", m[3])

	case reDeleteTx.MatchString(text):
		id, _ := strconv.ParseUint(reDeleteTx.FindStringSubmatch(text)[1], 10, 32)
		res := f.dispatchJSON(userID, ToolDeleteTransaction, deleteTransactionArgs{TransactionID: uint(id)})
		return res.Message(), res.RefreshData()

	case reThisMonth.MatchString(text):
		return f.listThisMonth(userID), false

	default:
		return fallbackHelp, false
	}
}

// dispatchJSON mã hóa tham số rồi gọi Dispatcher như một lệnh công cụ thường
func (f *Fallback) dispatchJSON(userID uint, tool string, args interface{}) ToolResult {
	raw, err := json.Marshal(args)
	if err != nil {
		return toolFailure("tham số không hợp lệ: " + err.Error())
	}
	return f.dispatcher.Dispatch(userID, tool, raw)
}

// createFromText tạo giao dịch từ lệnh văn bản: số tiền + tên danh mục,
// ngày mặc định là hôm nay
func (f *Fallback) createFromText(userID uint, txType, amountStr string, hasK bool, categoryName string) (string, bool) {
	amount, err := parseAmount(amountStr, hasK)
	if err != nil {
		return err.Error(), false
	}

	category, err := f.dispatcher.FindCategoryByName(userID, categoryName)
	if err != nil {
		return fmt.Sprintf("Không tìm thấy danh mục \"%s\". Gõ \"danh sách danh mục\" để xem các danh mục hiện có.",
			strings.TrimSpace(categoryName)), false
	}

	res := f.dispatchJSON(userID, ToolCreateTransaction, createTransactionArgs{
		CategoryID: category.ID,
		Type:       txType,
		Amount:     amount,
		Date:       time.Now().Format("2006-01-02"),
	})
	return res.Message(), res.RefreshData()
}

// listCategories liệt kê danh mục của người dùng
func (f *Fallback) listCategories(userID uint) string {
	list, err := f.dispatcher.ListCategories(userID)
	if err != nil {
		return "Không đọc được danh sách danh mục, vui lòng thử lại sau."
	}
	if len(list) == 0 {
		return "Bạn chưa có danh mục nào. Gõ \"tạo danh mục <tên>\" để tạo mới."
	}

	var b strings.Builder
	b.WriteString("Danh mục của bạn:\n")
	for _, c := range list {
		fmt.Fprintf(&b, "• %s (#%d)\n", c.Name, c.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// listThisMonth liệt kê giao dịch từ đầu tháng đến nay
func (f *Fallback) listThisMonth(userID uint) string {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	res := f.dispatchJSON(userID, ToolSearchTransactions, searchTransactionsArgs{
		StartDate: monthStart.Format("2006-01-02"),
		EndDate:   now.Format("2006-01-02"),
		PageSize:  20,
	})
	if !res.Success() {
		return res.Message()
	}

	list, _ := res["transactions"].([]models.Transaction)
	if len(list) == 0 {
		return "Tháng này bạn chưa có giao dịch nào."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Giao dịch tháng %s:\n", models.MonthKey(now))
	for _, tx := range list {
		sign := "-"
		if tx.Type == models.TransactionTypeIncome {
			sign = "+"
		}
		fmt.Fprintf(&b, "• #%d %s%s (%s)\n", tx.ID, sign, FormatVND(tx.Amount), tx.OccurredAt.Format("02/01"))
	}
	return strings.TrimRight(b.String(), "\n")
}
