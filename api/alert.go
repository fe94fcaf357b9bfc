package api

import (
	"strconv"

	"quanlychitieu/database"
	"quanlychitieu/middleware"
	"quanlychitieu/models"

	"github.com/gin-gonic/gin"
)

// AlertHandler xử lý lịch sử cảnh báo ngân sách
type AlertHandler struct{}

// NewAlertHandler tạo handler cảnh báo
func NewAlertHandler() *AlertHandler {
	return &AlertHandler{}
}

// List danh sách cảnh báo
// @Summary Danh sách cảnh báo
// @Description Lấy lịch sử cảnh báo ngân sách của người dùng, mới nhất trước
// @Tags Cảnh báo
// @Produce json
// @Security BearerAuth
// @Param page query int false "Trang" default(1)
// @Param page_size query int false "Số dòng mỗi trang" default(20)
// @Param type query string false "Lọc theo loại (total_limit/category_limit/income_vs_expense)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Alert}} "Thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	query := database.DB.Model(&models.Alert{}).Where("user_id = ?", userID)
	if alertType := c.Query("type"); alertType != "" {
		if !models.ValidAlertType(alertType) {
			BadRequest(c, "loại cảnh báo không hợp lệ")
			return
		}
		query = query.Where("type = ?", alertType)
	}

	var total int64
	query.Count(&total)

	var list []models.Alert
	if err := query.Order("triggered_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "đọc cảnh báo thất bại"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		List:     list,
	})
}

// Delete xóa một cảnh báo
// @Summary Xóa cảnh báo
// @Description Xóa một cảnh báo theo ID
// @Tags Cảnh báo
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID cảnh báo"
// @Success 200 {object} Response "Xóa thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 404 {object} Response "Cảnh báo không tồn tại"
// @Router /api/v1/alerts/{id} [delete]
func (h *AlertHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "ID không hợp lệ")
		return
	}

	var alert models.Alert
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).
		First(&alert).Error; err != nil {
		NotFound(c, "cảnh báo không tồn tại")
		return
	}

	if err := database.DB.Delete(&alert).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "xóa cảnh báo thất bại"))
		return
	}

	SuccessWithMessage(c, "xóa cảnh báo thành công", nil)
}

// DeleteAll xóa toàn bộ cảnh báo
// @Summary Xóa toàn bộ cảnh báo
// @Description Xóa toàn bộ lịch sử cảnh báo của người dùng
// @Tags Cảnh báo
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "Xóa thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/alerts [delete]
func (h *AlertHandler) DeleteAll(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	result := database.DB.Where("user_id = ?", userID).Delete(&models.Alert{})
	if result.Error != nil {
		InternalError(c, SafeErrorMessage(result.Error, "xóa cảnh báo thất bại"))
		return
	}

	SuccessWithMessage(c, "đã xóa toàn bộ cảnh báo", gin.H{"deleted": result.RowsAffected})
}
