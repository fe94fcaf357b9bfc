package api

import (
	"strconv"
	"time"

	"quanlychitieu/database"
	"quanlychitieu/middleware"
	"quanlychitieu/models"
	"quanlychitieu/service"

	"github.com/gin-gonic/gin"
)

// TransactionHandler xử lý giao dịch thu/chi
type TransactionHandler struct {
	alerts service.AlertChecker
}

// NewTransactionHandler tạo handler giao dịch. alerts được gọi best-effort
// sau mỗi thay đổi giao dịch chi tiêu.
func NewTransactionHandler(alerts service.AlertChecker) *TransactionHandler {
	return &TransactionHandler{alerts: alerts}
}

// parseDateTime chấp nhận "2006-01-02 15:04:05" hoặc "2006-01-02"
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

// CreateTransactionRequest yêu cầu tạo giao dịch
type CreateTransactionRequest struct {
	CategoryID uint    `json:"category_id" binding:"required" example:"1"`
	Type       string  `json:"type" binding:"required,oneof=income expense" example:"expense"`
	Amount     float64 `json:"amount" binding:"required,gt=0" example:"45000"`
	Note       string  `json:"note" example:"bún bò buổi sáng"`
	OccurredAt string  `json:"occurred_at" binding:"required" example:"2025-05-15 12:30:00"`
}

// UpdateTransactionRequest yêu cầu cập nhật giao dịch (chỉ các trường truyền lên)
type UpdateTransactionRequest struct {
	CategoryID *uint    `json:"category_id"`
	Type       *string  `json:"type" binding:"omitempty,oneof=income expense"`
	Amount     *float64 `json:"amount" binding:"omitempty,gt=0"`
	Note       *string  `json:"note"`
	OccurredAt *string  `json:"occurred_at"`
}

// TransactionListRequest bộ lọc tìm kiếm giao dịch
type TransactionListRequest struct {
	Page       int     `form:"page" example:"1"`
	PageSize   int     `form:"page_size" example:"10"`
	Type       string  `form:"type" example:"expense"`
	CategoryID uint    `form:"category_id" example:"1"`
	StartTime  string  `form:"start_time" example:"2025-05-01"`
	EndTime    string  `form:"end_time" example:"2025-05-31"`
	MinAmount  float64 `form:"min_amount"`
	MaxAmount  float64 `form:"max_amount"`
	Keyword    string  `form:"keyword" example:"bún bò"`
}

// Create tạo giao dịch
// @Summary Tạo giao dịch
// @Description Tạo một giao dịch thu nhập hoặc chi tiêu. Giao dịch chi tiêu sẽ kích hoạt kiểm tra ngân sách.
// @Tags Giao dịch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "Thông tin giao dịch"
// @Success 200 {object} Response{data=models.Transaction} "Tạo thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	// Danh mục phải tồn tại và thuộc về người dùng
	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", req.CategoryID, userID).
		First(&category).Error; err != nil {
		BadRequest(c, "danh mục không tồn tại")
		return
	}

	occurredAt, err := parseDateTime(req.OccurredAt)
	if err != nil {
		BadRequest(c, "thời gian không hợp lệ, định dạng đúng: 2006-01-02 15:04:05")
		return
	}

	tx := models.Transaction{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Type:       req.Type,
		Amount:     req.Amount,
		Note:       req.Note,
		OccurredAt: occurredAt,
	}

	if err := database.DB.Create(&tx).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "tạo giao dịch thất bại"))
		return
	}

	// Kiểm tra ngân sách best-effort: giao dịch đã lưu thành công,
	// lỗi ở bước cảnh báo không được trả về cho client
	if tx.IsExpense() && h.alerts != nil {
		h.alerts.CheckAfterExpenseChange(userID, tx.CategoryID, tx.OccurredAt)
	}

	SuccessWithMessage(c, "tạo giao dịch thành công", tx)
}

// List tìm kiếm giao dịch
// @Summary Danh sách giao dịch
// @Description Tìm kiếm giao dịch của người dùng theo khoảng ngày, loại, danh mục, khoảng tiền và từ khóa ghi chú
// @Tags Giao dịch
// @Produce json
// @Security BearerAuth
// @Param page query int false "Trang" default(1)
// @Param page_size query int false "Số dòng mỗi trang" default(10)
// @Param type query string false "Loại (income/expense)"
// @Param category_id query int false "Lọc theo danh mục"
// @Param start_time query string false "Từ ngày (2025-05-01)"
// @Param end_time query string false "Đến ngày (2025-05-31)"
// @Param min_amount query number false "Số tiền tối thiểu"
// @Param max_amount query number false "Số tiền tối đa"
// @Param keyword query string false "Từ khóa trong ghi chú"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "Thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)

	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.CategoryID != 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.StartTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.StartTime, time.Local); err == nil {
			query = query.Where("occurred_at >= ?", t)
		}
	}
	if req.EndTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.EndTime, time.Local); err == nil {
			// bao gồm cả ngày kết thúc
			query = query.Where("occurred_at <= ?", t.Add(24*time.Hour-time.Second))
		}
	}
	if req.MinAmount > 0 {
		query = query.Where("amount >= ?", req.MinAmount)
	}
	if req.MaxAmount > 0 {
		query = query.Where("amount <= ?", req.MaxAmount)
	}
	if req.Keyword != "" {
		query = query.Where("note LIKE ?", "%"+req.Keyword+"%")
	}

	var total int64
	query.Count(&total)

	var list []models.Transaction
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("occurred_at DESC").Offset(offset).Limit(req.PageSize).
		Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "tìm kiếm thất bại"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     list,
	})
}

// Get xem một giao dịch
// @Summary Chi tiết giao dịch
// @Description Lấy chi tiết một giao dịch theo ID
// @Tags Giao dịch
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID giao dịch"
// @Success 200 {object} Response{data=models.Transaction} "Thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 404 {object} Response "Giao dịch không tồn tại"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "ID không hợp lệ")
		return
	}

	var tx models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
		NotFound(c, "giao dịch không tồn tại")
		return
	}

	Success(c, tx)
}

// Update cập nhật giao dịch
// @Summary Cập nhật giao dịch
// @Description Cập nhật một giao dịch (chỉ các trường được truyền lên). Thay đổi liên quan chi tiêu sẽ kích hoạt kiểm tra ngân sách.
// @Tags Giao dịch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID giao dịch"
// @Param request body UpdateTransactionRequest true "Các trường cần cập nhật"
// @Success 200 {object} Response{data=models.Transaction} "Cập nhật thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 404 {object} Response "Giao dịch không tồn tại"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "ID không hợp lệ")
		return
	}

	var tx models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
		NotFound(c, "giao dịch không tồn tại")
		return
	}
	wasExpense := tx.IsExpense()

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	updates := make(map[string]interface{})
	if req.CategoryID != nil {
		var category models.Category
		if err := database.DB.Where("id = ? AND user_id = ?", *req.CategoryID, userID).
			First(&category).Error; err != nil {
			BadRequest(c, "danh mục không tồn tại")
			return
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.Note != nil {
		updates["note"] = *req.Note
	}
	if req.OccurredAt != nil {
		t, err := parseDateTime(*req.OccurredAt)
		if err != nil {
			BadRequest(c, "thời gian không hợp lệ, định dạng đúng: 2006-01-02 15:04:05")
			return
		}
		updates["occurred_at"] = t
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "không có gì để cập nhật", tx)
		return
	}

	if err := database.DB.Model(&tx).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "cập nhật giao dịch thất bại"))
		return
	}
	database.DB.First(&tx, tx.ID)

	if (wasExpense || tx.IsExpense()) && h.alerts != nil {
		h.alerts.CheckAfterExpenseChange(userID, tx.CategoryID, tx.OccurredAt)
	}

	SuccessWithMessage(c, "cập nhật thành công", tx)
}

// Delete xóa giao dịch
// @Summary Xóa giao dịch
// @Description Xóa một giao dịch theo ID. Xóa chi tiêu sẽ kích hoạt đánh giá lại ngân sách.
// @Tags Giao dịch
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID giao dịch"
// @Success 200 {object} Response "Xóa thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 404 {object} Response "Giao dịch không tồn tại"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "ID không hợp lệ")
		return
	}

	var tx models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tx).Error; err != nil {
		NotFound(c, "giao dịch không tồn tại")
		return
	}

	if err := database.DB.Delete(&tx).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "xóa giao dịch thất bại"))
		return
	}

	if tx.IsExpense() && h.alerts != nil {
		h.alerts.CheckAfterExpenseChange(userID, tx.CategoryID, tx.OccurredAt)
	}

	SuccessWithMessage(c, "xóa giao dịch thành công", nil)
}
