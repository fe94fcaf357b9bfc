package api

import (
	"time"

	"quanlychitieu/database"
	"quanlychitieu/middleware"
	"quanlychitieu/models"
	"quanlychitieu/service"

	"github.com/gin-gonic/gin"
)

// BudgetHandler xử lý ngân sách tổng và hạn mức theo danh mục
type BudgetHandler struct {
	alerts service.AlertChecker
}

// NewBudgetHandler tạo handler ngân sách. Đổi ngân sách cũng kích hoạt
// đánh giá lại ngưỡng cho tháng bị ảnh hưởng.
func NewBudgetHandler(alerts service.AlertChecker) *BudgetHandler {
	return &BudgetHandler{alerts: alerts}
}

// parseMonthKey đọc khóa tháng dạng "May 2025"
func parseMonthKey(s string) (time.Time, error) {
	return time.ParseInLocation("January 2006", s, time.Local)
}

// SetBudgetRequest yêu cầu đặt ngân sách tổng cho một tháng
type SetBudgetRequest struct {
	Month  string  `json:"month" binding:"required" example:"May 2025"`
	Amount float64 `json:"amount" binding:"required,gt=0" example:"5000000"`
}

// BudgetStatus tình trạng ngân sách của một tháng
type BudgetStatus struct {
	Budget  *models.Budget `json:"budget"`
	Spent   float64        `json:"spent"`
	Percent float64        `json:"percent"`
}

// SetBudget đặt ngân sách tổng
// @Summary Đặt ngân sách tổng
// @Description Tạo ngân sách tổng cho một tháng. Mỗi tháng chỉ có một ngân sách, nếu đã tồn tại trả về 409.
// @Tags Ngân sách
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetBudgetRequest true "Tháng và số tiền"
// @Success 200 {object} Response{data=models.Budget} "Đặt thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 409 {object} Response "Tháng này đã có ngân sách"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) SetBudget(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	monthTime, err := parseMonthKey(req.Month)
	if err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	var existing models.Budget
	if err := database.DB.Where("user_id = ? AND month = ?", userID, req.Month).
		First(&existing).Error; err == nil {
		Conflict(c, "tháng này đã có ngân sách, dùng PUT để cập nhật")
		return
	}

	budget := models.Budget{
		UserID: userID,
		Month:  req.Month,
		Amount: req.Amount,
	}
	if err := database.DB.Create(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "đặt ngân sách thất bại"))
		return
	}

	// Ngân sách mới có thể lập tức bị vượt bởi chi tiêu đã có trong tháng
	if h.alerts != nil {
		h.alerts.CheckAfterExpenseChange(userID, 0, monthTime)
	}

	SuccessWithMessage(c, "đặt ngân sách thành công", budget)
}

// UpdateBudget cập nhật ngân sách tổng
// @Summary Cập nhật ngân sách tổng
// @Description Đổi số tiền ngân sách tổng của một tháng đã đặt
// @Tags Ngân sách
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetBudgetRequest true "Tháng và số tiền mới"
// @Success 200 {object} Response{data=models.Budget} "Cập nhật thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 404 {object} Response "Tháng này chưa có ngân sách"
// @Router /api/v1/budgets [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	monthTime, err := parseMonthKey(req.Month)
	if err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	var budget models.Budget
	if err := database.DB.Where("user_id = ? AND month = ?", userID, req.Month).
		First(&budget).Error; err != nil {
		NotFound(c, "tháng này chưa có ngân sách")
		return
	}

	if err := database.DB.Model(&budget).Update("amount", req.Amount).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "cập nhật ngân sách thất bại"))
		return
	}
	budget.Amount = req.Amount

	if h.alerts != nil {
		h.alerts.CheckAfterExpenseChange(userID, 0, monthTime)
	}

	SuccessWithMessage(c, "cập nhật ngân sách thành công", budget)
}

// GetBudget xem tình trạng ngân sách của một tháng
// @Summary Tình trạng ngân sách
// @Description Xem ngân sách tổng, tổng chi và phần trăm đã dùng của một tháng
// @Tags Ngân sách
// @Produce json
// @Security BearerAuth
// @Param month query string false "Khóa tháng, ví dụ \"May 2025\" (mặc định tháng hiện tại)"
// @Success 200 {object} Response{data=BudgetStatus} "Thành công"
// @Failure 400 {object} Response "Tháng không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	month := c.Query("month")
	var monthTime time.Time
	if month == "" {
		now := time.Now()
		monthTime = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		month = models.MonthKey(now)
	} else {
		t, err := parseMonthKey(month)
		if err != nil {
			BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
			return
		}
		monthTime = t
	}
	monthEnd := monthTime.AddDate(0, 1, 0)

	status := BudgetStatus{}

	var budget models.Budget
	if err := database.DB.Where("user_id = ? AND month = ?", userID, month).
		First(&budget).Error; err == nil {
		status.Budget = &budget
	}

	var spent float64
	if err := database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?",
			userID, models.TransactionTypeExpense, monthTime, monthEnd).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&spent).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "thống kê chi tiêu thất bại"))
		return
	}
	status.Spent = spent
	if status.Budget != nil && status.Budget.Amount > 0 {
		status.Percent = spent / status.Budget.Amount * 100
	}

	Success(c, status)
}

// SetCategoryBudgetRequest yêu cầu đặt hạn mức cho một danh mục
type SetCategoryBudgetRequest struct {
	CategoryID uint    `json:"category_id" binding:"required" example:"1"`
	Month      string  `json:"month" binding:"required" example:"May 2025"`
	Limit      float64 `json:"limit" binding:"required,gt=0" example:"1000000"`
}

// SetCategoryBudget đặt hạn mức danh mục (upsert)
// @Summary Đặt hạn mức danh mục
// @Description Đặt hoặc cập nhật hạn mức chi tiêu của một danh mục trong tháng. Mỗi (danh mục, tháng) chỉ có một hạn mức.
// @Tags Ngân sách
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetCategoryBudgetRequest true "Danh mục, tháng và hạn mức"
// @Success 200 {object} Response{data=models.CategoryBudget} "Đặt thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/budgets/categories [put]
func (h *BudgetHandler) SetCategoryBudget(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req SetCategoryBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	monthTime, err := parseMonthKey(req.Month)
	if err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", req.CategoryID, userID).
		First(&category).Error; err != nil {
		BadRequest(c, "danh mục không tồn tại")
		return
	}

	// Upsert: mỗi (user, danh mục, tháng) chỉ giữ một dòng hạn mức
	var catBudget models.CategoryBudget
	err = database.DB.
		Where("user_id = ? AND category_id = ? AND month = ?", userID, req.CategoryID, req.Month).
		First(&catBudget).Error
	if err == nil {
		if err := database.DB.Model(&catBudget).Update("budget_limit", req.Limit).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "cập nhật hạn mức thất bại"))
			return
		}
		catBudget.Limit = req.Limit
	} else {
		catBudget = models.CategoryBudget{
			UserID:     userID,
			CategoryID: req.CategoryID,
			Month:      req.Month,
			Limit:      req.Limit,
		}
		if err := database.DB.Create(&catBudget).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "đặt hạn mức thất bại"))
			return
		}
	}

	if h.alerts != nil {
		h.alerts.CheckAfterExpenseChange(userID, req.CategoryID, monthTime)
	}

	SuccessWithMessage(c, "đặt hạn mức thành công", catBudget)
}

// ListCategoryBudgets danh sách hạn mức danh mục của một tháng
// @Summary Danh sách hạn mức danh mục
// @Description Lấy toàn bộ hạn mức danh mục của một tháng
// @Tags Ngân sách
// @Produce json
// @Security BearerAuth
// @Param month query string false "Khóa tháng, ví dụ \"May 2025\" (mặc định tháng hiện tại)"
// @Success 200 {object} Response{data=[]models.CategoryBudget} "Thành công"
// @Failure 400 {object} Response "Tháng không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/budgets/categories [get]
func (h *BudgetHandler) ListCategoryBudgets(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	month := c.Query("month")
	if month == "" {
		month = models.MonthKey(time.Now())
	} else if _, err := parseMonthKey(month); err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	var list []models.CategoryBudget
	if err := database.DB.Preload("Category").
		Where("user_id = ? AND month = ?", userID, month).
		Order("category_id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "đọc hạn mức thất bại"))
		return
	}

	Success(c, list)
}
