package api

import (
	"strconv"
	"strings"

	"quanlychitieu/database"
	"quanlychitieu/middleware"
	"quanlychitieu/models"

	"github.com/gin-gonic/gin"
)

// CategoryHandler xử lý danh mục thu/chi của người dùng
type CategoryHandler struct{}

// NewCategoryHandler tạo handler danh mục
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CreateCategoryRequest yêu cầu tạo danh mục
type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required,max=100" example:"Ăn uống"`
	Color string `json:"color" binding:"omitempty,max=20" example:"#ef4444"`
	Sort  int    `json:"sort" example:"0"`
}

// UpdateCategoryRequest yêu cầu cập nhật danh mục
type UpdateCategoryRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=100"`
	Color *string `json:"color" binding:"omitempty,max=20"`
	Sort  *int    `json:"sort"`
}

// List danh sách danh mục
// @Summary Danh sách danh mục
// @Description Lấy toàn bộ danh mục của người dùng, sắp theo thứ tự hiển thị
// @Tags Danh mục
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Category} "Thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var list []models.Category
	if err := database.DB.Where("user_id = ?", userID).
		Order("sort ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "đọc danh mục thất bại"))
		return
	}

	Success(c, list)
}

// Create tạo danh mục
// @Summary Tạo danh mục
// @Description Tạo danh mục mới, tên danh mục không được trùng trong cùng tài khoản
// @Tags Danh mục
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "Thông tin danh mục"
// @Success 200 {object} Response{data=models.Category} "Tạo thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 409 {object} Response "Tên danh mục đã tồn tại"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		BadRequest(c, "tên danh mục không được để trống")
		return
	}

	var existing models.Category
	if err := database.DB.Where("user_id = ? AND name = ?", userID, name).
		First(&existing).Error; err == nil {
		Conflict(c, "tên danh mục đã tồn tại")
		return
	}

	category := models.Category{
		UserID: userID,
		Name:   name,
		Color:  req.Color,
		Sort:   req.Sort,
	}
	if category.Color == "" {
		category.Color = "#64748b"
	}

	if err := database.DB.Create(&category).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "tạo danh mục thất bại"))
		return
	}

	SuccessWithMessage(c, "tạo danh mục thành công", category)
}

// Update cập nhật danh mục
// @Summary Cập nhật danh mục
// @Description Đổi tên, màu hoặc thứ tự hiển thị của danh mục
// @Tags Danh mục
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID danh mục"
// @Param request body UpdateCategoryRequest true "Các trường cần cập nhật"
// @Success 200 {object} Response{data=models.Category} "Cập nhật thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 404 {object} Response "Danh mục không tồn tại"
// @Failure 409 {object} Response "Tên danh mục đã tồn tại"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "ID không hợp lệ")
		return
	}

	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).
		First(&category).Error; err != nil {
		NotFound(c, "danh mục không tồn tại")
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(c, "tên danh mục không được để trống")
			return
		}
		var existing models.Category
		if err := database.DB.Where("user_id = ? AND name = ? AND id <> ?", userID, name, category.ID).
			First(&existing).Error; err == nil {
			Conflict(c, "tên danh mục đã tồn tại")
			return
		}
		updates["name"] = name
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Sort != nil {
		updates["sort"] = *req.Sort
	}
	if len(updates) == 0 {
		SuccessWithMessage(c, "không có gì để cập nhật", category)
		return
	}

	if err := database.DB.Model(&category).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "cập nhật danh mục thất bại"))
		return
	}
	database.DB.First(&category, category.ID)

	SuccessWithMessage(c, "cập nhật danh mục thành công", category)
}

// Delete xóa danh mục
// @Summary Xóa danh mục
// @Description Xóa danh mục, chỉ cho phép khi danh mục không còn giao dịch
// @Tags Danh mục
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID danh mục"
// @Success 200 {object} Response "Xóa thành công"
// @Failure 400 {object} Response "Danh mục còn giao dịch"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Failure 404 {object} Response "Danh mục không tồn tại"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "ID không hợp lệ")
		return
	}

	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).
		First(&category).Error; err != nil {
		NotFound(c, "danh mục không tồn tại")
		return
	}

	// Không xóa danh mục còn giao dịch để giữ toàn vẹn lịch sử
	var count int64
	database.DB.Model(&models.Transaction{}).
		Where("category_id = ? AND user_id = ?", category.ID, userID).Count(&count)
	if count > 0 {
		BadRequest(c, "danh mục còn giao dịch, không thể xóa")
		return
	}

	if err := database.DB.Delete(&category).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "xóa danh mục thất bại"))
		return
	}

	SuccessWithMessage(c, "xóa danh mục thành công", nil)
}
