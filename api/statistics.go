package api

import (
	"strconv"
	"time"

	"quanlychitieu/database"
	"quanlychitieu/middleware"
	"quanlychitieu/models"

	"github.com/gin-gonic/gin"
)

// StatisticsHandler thống kê thu chi
type StatisticsHandler struct{}

// NewStatisticsHandler tạo handler thống kê
func NewStatisticsHandler() *StatisticsHandler {
	return &StatisticsHandler{}
}

// MonthSummary tổng hợp thu chi một tháng
type MonthSummary struct {
	Month        string  `json:"month"`
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`
	Count        int64   `json:"count"`
}

// CategoryStat thống kê chi tiêu theo danh mục
type CategoryStat struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Color        string  `json:"color"`
	Total        float64 `json:"total"`
	Percent      float64 `json:"percent"`
}

// monthRange trả về [đầu tháng, đầu tháng sau) của khóa tháng, mặc định
// tháng hiện tại nếu chuỗi rỗng
func monthRange(month string) (key string, start, end time.Time, err error) {
	if month == "" {
		now := time.Now()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return models.MonthKey(now), start, start.AddDate(0, 1, 0), nil
	}
	start, err = parseMonthKey(month)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return month, start, start.AddDate(0, 1, 0), nil
}

// Summary tổng hợp tháng
// @Summary Tổng hợp thu chi
// @Description Tổng thu, tổng chi, số dư và số giao dịch của một tháng
// @Tags Thống kê
// @Produce json
// @Security BearerAuth
// @Param month query string false "Khóa tháng, ví dụ \"May 2025\" (mặc định tháng hiện tại)"
// @Success 200 {object} Response{data=MonthSummary} "Thành công"
// @Failure 400 {object} Response "Tháng không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/statistics/summary [get]
func (h *StatisticsHandler) Summary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	key, start, end, err := monthRange(c.Query("month"))
	if err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	summary := MonthSummary{Month: key}

	type row struct {
		Type  string
		Total float64
		N     int64
	}
	var rows []row
	if err := database.DB.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").
		Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?", userID, start, end).
		Group("type").
		Scan(&rows).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "thống kê thất bại"))
		return
	}

	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			summary.TotalIncome = r.Total
		case models.TransactionTypeExpense:
			summary.TotalExpense = r.Total
		}
		summary.Count += r.N
	}
	summary.Balance = summary.TotalIncome - summary.TotalExpense

	Success(c, summary)
}

// ByCategory thống kê theo danh mục
// @Summary Thống kê theo danh mục
// @Description Tổng tiền theo từng danh mục trong tháng, kèm phần trăm trên tổng
// @Tags Thống kê
// @Produce json
// @Security BearerAuth
// @Param month query string false "Khóa tháng, ví dụ \"May 2025\" (mặc định tháng hiện tại)"
// @Param type query string false "Loại giao dịch (mặc định expense)" Enums(income, expense)
// @Success 200 {object} Response{data=[]CategoryStat} "Thành công"
// @Failure 400 {object} Response "Tháng không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/statistics/by-category [get]
func (h *StatisticsHandler) ByCategory(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	_, start, end, err := monthRange(c.Query("month"))
	if err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	txType := c.DefaultQuery("type", models.TransactionTypeExpense)
	if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		BadRequest(c, "loại giao dịch không hợp lệ")
		return
	}

	stats, err := categoryStats(userID, txType, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "thống kê thất bại"))
		return
	}

	Success(c, stats)
}

// categoryStats gom tổng tiền theo danh mục trong [start, end) và tính phần trăm
func categoryStats(userID uint, txType string, start, end time.Time) ([]CategoryStat, error) {
	var stats []CategoryStat
	err := database.DB.Model(&models.Transaction{}).
		Select("transactions.category_id, categories.name AS category_name, categories.color, COALESCE(SUM(transactions.amount), 0) AS total").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.occurred_at >= ? AND transactions.occurred_at < ?",
			userID, txType, start, end).
		Group("transactions.category_id, categories.name, categories.color").
		Order("total DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, s := range stats {
		sum += s.Total
	}
	if sum > 0 {
		for i := range stats {
			stats[i].Percent = stats[i].Total / sum * 100
		}
	}
	return stats, nil
}

// MonthPoint một điểm trên biểu đồ xu hướng
type MonthPoint struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Trend xu hướng thu chi nhiều tháng
// @Summary Xu hướng thu chi
// @Description Tổng thu chi theo từng tháng trong N tháng gần nhất
// @Tags Thống kê
// @Produce json
// @Security BearerAuth
// @Param months query int false "Số tháng" default(6)
// @Success 200 {object} Response{data=[]MonthPoint} "Thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/statistics/trend [get]
func (h *StatisticsHandler) Trend(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	months, _ := strconv.Atoi(c.DefaultQuery("months", "6"))
	if months <= 0 || months > 24 {
		months = 6
	}

	points, err := trendPoints(userID, months)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "thống kê thất bại"))
		return
	}

	Success(c, points)
}

// trendPoints tổng thu chi của từng tháng, từ cũ đến mới
func trendPoints(userID uint, months int) ([]MonthPoint, error) {
	now := time.Now()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	points := make([]MonthPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		point := MonthPoint{Month: models.MonthKey(start)}

		type row struct {
			Type  string
			Total float64
		}
		var rows []row
		err := database.DB.Model(&models.Transaction{}).
			Select("type, COALESCE(SUM(amount), 0) AS total").
			Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?", userID, start, end).
			Group("type").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			switch r.Type {
			case models.TransactionTypeIncome:
				point.Income = r.Total
			case models.TransactionTypeExpense:
				point.Expense = r.Total
			}
		}
		points = append(points, point)
	}
	return points, nil
}
