package api

import (
	"bytes"
	"net/http"
	"strconv"

	"quanlychitieu/middleware"
	"quanlychitieu/models"

	"github.com/gin-gonic/gin"
	"github.com/wcharczuk/go-chart/v2"
)

// ChartHandler vẽ biểu đồ thống kê dạng ảnh PNG
type ChartHandler struct{}

// NewChartHandler tạo handler biểu đồ
func NewChartHandler() *ChartHandler {
	return &ChartHandler{}
}

// CategoryPie biểu đồ tròn chi tiêu theo danh mục
// @Summary Biểu đồ tròn theo danh mục
// @Description Vẽ biểu đồ tròn tỷ lệ chi tiêu theo danh mục của một tháng, trả về ảnh PNG
// @Tags Thống kê
// @Produce png
// @Security BearerAuth
// @Param month query string false "Khóa tháng, ví dụ \"May 2025\" (mặc định tháng hiện tại)"
// @Success 200 {file} png "Ảnh biểu đồ"
// @Failure 400 {object} Response "Tháng không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/statistics/chart/pie [get]
func (h *ChartHandler) CategoryPie(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	_, start, end, err := monthRange(c.Query("month"))
	if err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	stats, err := categoryStats(userID, models.TransactionTypeExpense, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "thống kê thất bại"))
		return
	}
	if len(stats) == 0 {
		NotFound(c, "tháng này chưa có chi tiêu để vẽ biểu đồ")
		return
	}

	values := make([]chart.Value, 0, len(stats))
	for _, s := range stats {
		values = append(values, chart.Value{
			Label: s.CategoryName,
			Value: s.Total,
		})
	}

	pie := chart.PieChart{
		Width:  512,
		Height: 512,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		InternalError(c, SafeErrorMessage(err, "vẽ biểu đồ thất bại"))
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ExpenseTrend biểu đồ cột chi tiêu theo tháng
// @Summary Biểu đồ cột chi tiêu theo tháng
// @Description Vẽ biểu đồ cột tổng chi tiêu của N tháng gần nhất, trả về ảnh PNG
// @Tags Thống kê
// @Produce png
// @Security BearerAuth
// @Param months query int false "Số tháng" default(6)
// @Success 200 {file} png "Ảnh biểu đồ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/statistics/chart/trend [get]
func (h *ChartHandler) ExpenseTrend(c *gin.Context) {
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

	bars := make([]chart.Value, 0, len(points))
	for _, p := range points {
		bars = append(bars, chart.Value{
			Label: p.Month,
			Value: p.Expense,
		})
	}

	bar := chart.BarChart{
		Width:    800,
		Height:   400,
		BarWidth: 60,
		Bars:     bars,
		XAxis: chart.Style{
			TextRotationDegrees: 45,
		},
	}

	var buf bytes.Buffer
	if err := bar.Render(chart.PNG, &buf); err != nil {
		InternalError(c, SafeErrorMessage(err, "vẽ biểu đồ thất bại"))
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
