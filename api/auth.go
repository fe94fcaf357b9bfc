package api

import (
	"log"

	"quanlychitieu/config"
	"quanlychitieu/database"
	"quanlychitieu/middleware"
	"quanlychitieu/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler xử lý đăng ký/đăng nhập
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler tạo handler xác thực
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// RegisterRequest yêu cầu đăng ký
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"nguyenvana"`
	Password string `json:"password" binding:"required,min=6,max=50" example:"matkhau123"`
	Email    string `json:"email" binding:"omitempty,email" example:"vana@example.com"`
}

// LoginRequest yêu cầu đăng nhập (tên đăng nhập hoặc email)
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"nguyenvana"`
	Password string `json:"password" binding:"required" example:"matkhau123"`
}

// LoginResponse kết quả đăng nhập
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

// Register đăng ký tài khoản
// @Summary Đăng ký tài khoản
// @Description Tạo tài khoản mới và bộ danh mục mặc định cho người dùng
// @Tags Xác thực
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Thông tin đăng ký"
// @Success 200 {object} Response{data=models.User} "Đăng ký thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 500 {object} Response "Lỗi máy chủ"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	// Tên đăng nhập phải duy nhất
	var existingUser models.User
	if err := database.DB.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
		BadRequest(c, "tên đăng nhập đã tồn tại")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "mã hóa mật khẩu thất bại")
		return
	}

	user := models.User{
		Username: req.Username,
		Password: string(hashedPassword),
		Email:    req.Email,
		Status:   models.UserStatusActive,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "tạo tài khoản thất bại"))
		return
	}

	// Danh mục mặc định tạo best-effort, lỗi không chặn việc đăng ký
	if err := database.SeedDefaultCategories(user.ID); err != nil {
		log.Printf("tạo danh mục mặc định cho user %d thất bại: %v", user.ID, err)
	}

	SuccessWithMessage(c, "đăng ký thành công", user)
}

// Login đăng nhập
// @Summary Đăng nhập
// @Description Đăng nhập lấy JWT token
// @Tags Xác thực
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Thông tin đăng nhập"
// @Success 200 {object} Response{data=LoginResponse} "Đăng nhập thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Sai tên đăng nhập hoặc mật khẩu"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	// Cho phép đăng nhập bằng tên hoặc email
	var user models.User
	if err := database.DB.Where("username = ? OR email = ?", req.Username, req.Username).
		First(&user).Error; err != nil {
		Unauthorized(c, "sai tên đăng nhập hoặc mật khẩu")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "sai tên đăng nhập hoặc mật khẩu")
		return
	}

	if user.Status == models.UserStatusLocked {
		Unauthorized(c, "tài khoản đã bị khóa")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "tạo token thất bại")
		return
	}

	SuccessWithMessage(c, "đăng nhập thành công", LoginResponse{
		Token:    token,
		UserInfo: user,
	})
}

// GetProfile xem thông tin tài khoản
// @Summary Thông tin tài khoản
// @Description Lấy thông tin của người dùng đang đăng nhập
// @Tags Xác thực
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "Thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "người dùng không tồn tại")
		return
	}

	Success(c, user)
}

// ChangePasswordRequest yêu cầu đổi mật khẩu
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=50"`
}

// ChangePassword đổi mật khẩu
// @Summary Đổi mật khẩu
// @Description Đổi mật khẩu của người dùng đang đăng nhập
// @Tags Xác thực
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Mật khẩu cũ và mới"
// @Success 200 {object} Response "Đổi mật khẩu thành công"
// @Failure 400 {object} Response "Mật khẩu cũ không đúng"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "người dùng không tồn tại")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		BadRequest(c, "mật khẩu cũ không đúng")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "mã hóa mật khẩu thất bại")
		return
	}

	if err := database.DB.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "đổi mật khẩu thất bại"))
		return
	}

	SuccessWithMessage(c, "đổi mật khẩu thành công", nil)
}
