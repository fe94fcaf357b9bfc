package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quanlychitieu/database"
	"quanlychitieu/models"
)

// Tên các công cụ chatbot được hỗ trợ
const (
	ToolCreateTransaction  = "createTransaction"
	ToolSearchTransactions = "searchTransactions"
	ToolUpdateTransaction  = "updateTransaction"
	ToolDeleteTransaction  = "deleteTransaction"
	ToolCreateCategory     = "createCategory"
)

// ToolResult phong bì kết quả của một lệnh gọi công cụ:
// luôn có success và message, kèm payload tùy công cụ.
type ToolResult map[string]interface{}

// Success công cụ chạy thành công không
func (r ToolResult) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

// Message câu thông báo cho người dùng
func (r ToolResult) Message() string {
	msg, _ := r["message"].(string)
	return msg
}

// RefreshData client có cần tải lại dữ liệu không
func (r ToolResult) RefreshData() bool {
	ok, _ := r["refresh_data"].(bool)
	return ok
}

func toolFailure(message string) ToolResult {
	return ToolResult{"success": false, "message": message}
}

// AlertChecker bộ điều phối cảnh báo mà dispatcher gọi sau khi một
// giao dịch chi tiêu thay đổi thành công
type AlertChecker interface {
	CheckAfterExpenseChange(userID, categoryID uint, occurredAt time.Time)
}

// Dispatcher ánh xạ lệnh gọi công cụ của chatbot sang thao tác nghiệp vụ.
// Chatbot là một đường ghi dữ liệu ngang quyền với form thủ công, nên mọi
// giao dịch chi tiêu tạo/sửa/xóa qua đây đều phải chạy kiểm tra ngân sách
// y như đường ghi thường.
type Dispatcher struct {
	alerts AlertChecker
}

// NewDispatcher tạo dispatcher
func NewDispatcher(alerts AlertChecker) *Dispatcher {
	return &Dispatcher{alerts: alerts}
}

// Dispatch thực thi một lệnh gọi công cụ theo tên. Lỗi nghiệp vụ của từng
// công cụ được gói vào {success:false}, không ném ra ngoài — một công cụ
// hỏng không được làm đứt cả lượt hội thoại.
func (d *Dispatcher) Dispatch(userID uint, name string, args json.RawMessage) ToolResult {
	switch name {
	case ToolCreateTransaction:
		return d.createTransaction(userID, args)
	case ToolSearchTransactions:
		return d.searchTransactions(userID, args)
	case ToolUpdateTransaction:
		return d.updateTransaction(userID, args)
	case ToolDeleteTransaction:
		return d.deleteTransaction(userID, args)
	case ToolCreateCategory:
		return d.createCategory(userID, args)
	default:
		return toolFailure(fmt.Sprintf("công cụ không được hỗ trợ: %s", name))
	}
}

// parseToolDate chấp nhận "2006-01-02" hoặc kèm giờ "2006-01-02 15:04:05"
func parseToolDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

type createTransactionArgs struct {
	CategoryID uint    `json:"category_id"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	Note       string  `json:"note"`
}

func (d *Dispatcher) createTransaction(userID uint, raw json.RawMessage) ToolResult {
	var args createTransactionArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return toolFailure("tham số không hợp lệ: " + err.Error())
	}

	if args.Type != models.TransactionTypeIncome && args.Type != models.TransactionTypeExpense {
		return toolFailure("loại giao dịch phải là income hoặc expense")
	}
	if args.Amount <= 0 {
		return toolFailure("số tiền phải lớn hơn 0")
	}

	occurredAt, err := parseToolDate(args.Date)
	if err != nil {
		return toolFailure("ngày không hợp lệ, định dạng đúng: 2006-01-02")
	}

	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", args.CategoryID, userID).
		First(&category).Error; err != nil {
		return toolFailure("danh mục không tồn tại")
	}

	tx := models.Transaction{
		UserID:     userID,
		CategoryID: args.CategoryID,
		Type:       args.Type,
		Amount:     args.Amount,
		Note:       args.Note,
		OccurredAt: occurredAt,
	}
	if err := database.DB.Create(&tx).Error; err != nil {
		return toolFailure("tạo giao dịch thất bại: " + err.Error())
	}

	if tx.IsExpense() && d.alerts != nil {
		d.alerts.CheckAfterExpenseChange(userID, tx.CategoryID, tx.OccurredAt)
	}

	label := "thu nhập"
	if tx.IsExpense() {
		label = "chi tiêu"
	}
	return ToolResult{
		"success":      true,
		"message":      fmt.Sprintf("Đã ghi %s %s vào danh mục \"%s\"", label, FormatVND(tx.Amount), category.Name),
		"transaction":  tx,
		"refresh_data": true,
	}
}

type searchTransactionsArgs struct {
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Type       string   `json:"type"`
	CategoryID uint     `json:"category_id"`
	MinAmount  *float64 `json:"min_amount"`
	MaxAmount  *float64 `json:"max_amount"`
	Keyword    string   `json:"keyword"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}

func (d *Dispatcher) searchTransactions(userID uint, raw json.RawMessage) ToolResult {
	var args searchTransactionsArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return toolFailure("tham số không hợp lệ: " + err.Error())
		}
	}

	if args.Page <= 0 {
		args.Page = 1
	}
	if args.PageSize <= 0 {
		args.PageSize = 10
	}
	if args.PageSize > 100 {
		args.PageSize = 100
	}

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if args.Type != "" {
		query = query.Where("type = ?", args.Type)
	}
	if args.CategoryID != 0 {
		query = query.Where("category_id = ?", args.CategoryID)
	}
	if args.StartDate != "" {
		if t, err := parseToolDate(args.StartDate); err == nil {
			query = query.Where("occurred_at >= ?", t)
		}
	}
	if args.EndDate != "" {
		if t, err := parseToolDate(args.EndDate); err == nil {
			// bao gồm cả ngày kết thúc
			query = query.Where("occurred_at < ?", t.AddDate(0, 0, 1))
		}
	}
	if args.MinAmount != nil {
		query = query.Where("amount >= ?", *args.MinAmount)
	}
	if args.MaxAmount != nil {
		query = query.Where("amount <= ?", *args.MaxAmount)
	}
	if args.Keyword != "" {
		query = query.Where("note LIKE ?", "%"+args.Keyword+"%")
	}

	var total int64
	query.Count(&total)

	var list []models.Transaction
	offset := (args.Page - 1) * args.PageSize
	if err := query.Order("occurred_at DESC").Offset(offset).Limit(args.PageSize).
		Find(&list).Error; err != nil {
		return toolFailure("tìm kiếm giao dịch thất bại: " + err.Error())
	}

	return ToolResult{
		"success":      true,
		"message":      fmt.Sprintf("Tìm thấy %d giao dịch", total),
		"total":        total,
		"page":         args.Page,
		"page_size":    args.PageSize,
		"transactions": list,
	}
}

type updateTransactionArgs struct {
	TransactionID uint     `json:"transaction_id"`
	CategoryID    *uint    `json:"category_id"`
	Type          *string  `json:"type"`
	Amount        *float64 `json:"amount"`
	Date          *string  `json:"date"`
	Note          *string  `json:"note"`
}

func (d *Dispatcher) updateTransaction(userID uint, raw json.RawMessage) ToolResult {
	var args updateTransactionArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return toolFailure("tham số không hợp lệ: " + err.Error())
	}

	var tx models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", args.TransactionID, userID).
		First(&tx).Error; err != nil {
		return toolFailure("giao dịch không tồn tại")
	}
	wasExpense := tx.IsExpense()

	updates := make(map[string]interface{})
	if args.Type != nil {
		if *args.Type != models.TransactionTypeIncome && *args.Type != models.TransactionTypeExpense {
			return toolFailure("loại giao dịch phải là income hoặc expense")
		}
		updates["type"] = *args.Type
	}
	if args.Amount != nil {
		if *args.Amount <= 0 {
			return toolFailure("số tiền phải lớn hơn 0")
		}
		updates["amount"] = *args.Amount
	}
	if args.CategoryID != nil {
		var category models.Category
		if err := database.DB.Where("id = ? AND user_id = ?", *args.CategoryID, userID).
			First(&category).Error; err != nil {
			return toolFailure("danh mục không tồn tại")
		}
		updates["category_id"] = *args.CategoryID
	}
	if args.Date != nil {
		t, err := parseToolDate(*args.Date)
		if err != nil {
			return toolFailure("ngày không hợp lệ, định dạng đúng: 2006-01-02")
		}
		updates["occurred_at"] = t
	}
	if args.Note != nil {
		updates["note"] = *args.Note
	}
	if len(updates) == 0 {
		return toolFailure("không có trường nào để cập nhật")
	}

	if err := database.DB.Model(&tx).Updates(updates).Error; err != nil {
		return toolFailure("cập nhật giao dịch thất bại: " + err.Error())
	}
	database.DB.First(&tx, tx.ID)

	if (wasExpense || tx.IsExpense()) && d.alerts != nil {
		d.alerts.CheckAfterExpenseChange(userID, tx.CategoryID, tx.OccurredAt)
	}

	return ToolResult{
		"success":      true,
		"message":      fmt.Sprintf("Đã cập nhật giao dịch #%d", tx.ID),
		"transaction":  tx,
		"refresh_data": true,
	}
}

type deleteTransactionArgs struct {
	TransactionID uint `json:"transaction_id"`
}

func (d *Dispatcher) deleteTransaction(userID uint, raw json.RawMessage) ToolResult {
	var args deleteTransactionArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return toolFailure("tham số không hợp lệ: " + err.Error())
	}

	var tx models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", args.TransactionID, userID).
		First(&tx).Error; err != nil {
		return toolFailure("giao dịch không tồn tại")
	}

	if err := database.DB.Delete(&tx).Error; err != nil {
		return toolFailure("xóa giao dịch thất bại: " + err.Error())
	}

	if tx.IsExpense() && d.alerts != nil {
		d.alerts.CheckAfterExpenseChange(userID, tx.CategoryID, tx.OccurredAt)
	}

	return ToolResult{
		"success":      true,
		"message":      fmt.Sprintf("Đã xóa giao dịch #%d (%s)", tx.ID, FormatVND(tx.Amount)),
		"refresh_data": true,
	}
}

type createCategoryArgs struct {
	Name string `json:"name"`
}

func (d *Dispatcher) createCategory(userID uint, raw json.RawMessage) ToolResult {
	var args createCategoryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return toolFailure("tham số không hợp lệ: " + err.Error())
	}

	name := strings.TrimSpace(args.Name)
	if name == "" {
		return toolFailure("tên danh mục không được để trống")
	}

	var existing models.Category
	if err := database.DB.Where("user_id = ? AND name = ?", userID, name).
		First(&existing).Error; err == nil {
		return toolFailure(fmt.Sprintf("danh mục \"%s\" đã tồn tại", name))
	}

	category := models.Category{UserID: userID, Name: name, Color: "#64748b"}
	if err := database.DB.Create(&category).Error; err != nil {
		return toolFailure("tạo danh mục thất bại: " + err.Error())
	}

	return ToolResult{
		"success":      true,
		"message":      fmt.Sprintf("Đã tạo danh mục \"%s\"", name),
		"category":     category,
		"refresh_data": true,
	}
}

// ListCategories đọc danh sách danh mục của người dùng (dùng chung cho
// bộ dự phòng và API)
func (d *Dispatcher) ListCategories(userID uint) ([]models.Category, error) {
	var list []models.Category
	err := database.DB.Where("user_id = ?", userID).
		Order("sort ASC, id ASC").Find(&list).Error
	return list, err
}

// FindCategoryByName tìm danh mục theo tên (khớp nguyên văn, theo user)
func (d *Dispatcher) FindCategoryByName(userID uint, name string) (*models.Category, error) {
	var category models.Category
	err := database.DB.Where("user_id = ? AND name = ?", userID, strings.TrimSpace(name)).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ToolSchemas khai báo function-calling của cả 5 công cụ gửi lên mô hình
func ToolSchemas() []ToolSchema {
	return []ToolSchema{
		{
			Type: "function",
			Function: ToolSchemaFunction{
				Name:        ToolCreateTransaction,
				Description: "Ghi một giao dịch thu nhập hoặc chi tiêu mới cho người dùng",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"category_id": map[string]interface{}{"type": "integer", "description": "ID danh mục"},
						"type":        map[string]interface{}{"type": "string", "enum": []string{"income", "expense"}},
						"amount":      map[string]interface{}{"type": "number", "description": "Số tiền (VND), lớn hơn 0"},
						"date":        map[string]interface{}{"type": "string", "description": "Ngày giao dịch, định dạng YYYY-MM-DD"},
						"note":        map[string]interface{}{"type": "string", "description": "Ghi chú (tùy chọn)"},
					},
					"required": []string{"category_id", "type", "amount", "date"},
				},
			},
		},
		{
			Type: "function",
			Function: ToolSchemaFunction{
				Name:        ToolSearchTransactions,
				Description: "Tìm kiếm giao dịch theo khoảng ngày, loại, danh mục, khoảng tiền hoặc từ khóa ghi chú",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"start_date":  map[string]interface{}{"type": "string", "description": "Từ ngày YYYY-MM-DD"},
						"end_date":    map[string]interface{}{"type": "string", "description": "Đến ngày YYYY-MM-DD"},
						"type":        map[string]interface{}{"type": "string", "enum": []string{"income", "expense"}},
						"category_id": map[string]interface{}{"type": "integer"},
						"min_amount":  map[string]interface{}{"type": "number"},
						"max_amount":  map[string]interface{}{"type": "number"},
						"keyword":     map[string]interface{}{"type": "string", "description": "Từ khóa trong ghi chú"},
						"page":        map[string]interface{}{"type": "integer"},
						"page_size":   map[string]interface{}{"type": "integer"},
					},
				},
			},
		},
		{
			Type: "function",
			Function: ToolSchemaFunction{
				Name:        ToolUpdateTransaction,
				Description: "Cập nhật một giao dịch đã có (chỉ các trường được truyền)",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"transaction_id": map[string]interface{}{"type": "integer"},
						"category_id":    map[string]interface{}{"type": "integer"},
						"type":           map[string]interface{}{"type": "string", "enum": []string{"income", "expense"}},
						"amount":         map[string]interface{}{"type": "number"},
						"date":           map[string]interface{}{"type": "string", "description": "YYYY-MM-DD"},
						"note":           map[string]interface{}{"type": "string"},
					},
					"required": []string{"transaction_id"},
				},
			},
		},
		{
			Type: "function",
			Function: ToolSchemaFunction{
				Name:        ToolDeleteTransaction,
				Description: "Xóa một giao dịch theo ID",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"transaction_id": map[string]interface{}{"type": "integer"},
					},
					"required": []string{"transaction_id"},
				},
			},
		},
		{
			Type: "function",
			Function: ToolSchemaFunction{
				Name:        ToolCreateCategory,
				Description: "Tạo danh mục giao dịch mới cho người dùng",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name": map[string]interface{}{"type": "string", "description": "Tên danh mục"},
					},
					"required": []string{"name"},
				},
			},
		},
	}
}
