package database

import (
	"fmt"
	"log"

	"quanlychitieu/config"
	"quanlychitieu/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init khởi tạo kết nối cơ sở dữ liệu
func Init(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	logMode := logger.Warn
	if cfg.Server.Mode == "debug" {
		logMode = logger.Info
	}

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return fmt.Errorf("kết nối cơ sở dữ liệu thất bại: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// Tham số pool kết nối
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	// Tự động tạo/cập nhật bảng
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Transaction{},
		&models.Budget{},
		&models.CategoryBudget{},
		&models.Alert{},
		&models.ChatMessage{},
	); err != nil {
		return err
	}

	log.Println("khởi tạo cơ sở dữ liệu thành công")
	return nil
}

// GetDB lấy kết nối cơ sở dữ liệu
func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultCategories tạo bộ danh mục mặc định cho người dùng mới.
// Bỏ qua nếu người dùng đã có danh mục (đăng ký lại không nhân đôi dữ liệu).
func SeedDefaultCategories(userID uint) error {
	var count int64
	if err := DB.Model(&models.Category{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	cats := models.DefaultCategories()
	for i := range cats {
		cats[i].UserID = userID
	}
	return DB.Create(&cats).Error
}
