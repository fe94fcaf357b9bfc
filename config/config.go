package config

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config cấu hình ứng dụng
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Email    EmailConfig    `mapstructure:"email"`
	Chatbot  ChatbotConfig  `mapstructure:"chatbot"`
}

// ServerConfig cấu hình máy chủ
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig cấu hình cơ sở dữ liệu
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// JWTConfig cấu hình JWT
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig cấu hình gửi mail
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// ChatbotConfig cấu hình dịch vụ mô hình ngôn ngữ (API tương thích OpenAI)
type ChatbotConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
	HistoryTurns   int           `mapstructure:"history_turns"`
}

var (
	// GlobalConfig cấu hình toàn cục
	GlobalConfig *Config
)

// LoadConfig nạp cấu hình.
// Thứ tự ưu tiên: biến môi trường > file cấu hình ngoài > cấu hình mặc định nhúng sẵn.
// configPath: đường dẫn file cấu hình ngoài (tùy chọn)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. Nạp cấu hình mặc định nhúng trong binary
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("đọc cấu hình mặc định thất bại: %w", err)
	}

	// 2. Gộp file cấu hình ngoài nếu có
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("cảnh báo: không đọc được file cấu hình %s: %v", configPath, err)
		} else {
			log.Printf("đã gộp file cấu hình ngoài: %s", configPath)
		}
	} else {
		// Tự tìm config.yaml ở các vị trí quen thuộc
		external := viper.New()
		external.SetConfigName("config")
		external.SetConfigType("yaml")
		external.AddConfigPath(".")
		external.AddConfigPath("./config")
		external.AddConfigPath("/etc/quanlychitieu")
		external.AddConfigPath("$HOME/.quanlychitieu")

		if err := external.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(external.AllSettings()); err != nil {
				log.Printf("cảnh báo: gộp cấu hình ngoài thất bại: %v", err)
			} else {
				log.Printf("đã gộp file cấu hình ngoài: %s", external.ConfigFileUsed())
			}
		}
	}

	// 3. Biến môi trường ghi đè (QLCT_SERVER_PORT, QLCT_CHATBOT_API_KEY, ...)
	v.SetEnvPrefix("QLCT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("phân tích cấu hình thất bại: %w", err)
	}

	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	// Thời gian chờ gọi mô hình ngôn ngữ, mặc định 10 giây
	if cfg.Chatbot.TimeoutSeconds <= 0 {
		cfg.Chatbot.TimeoutSeconds = 10
	}
	cfg.Chatbot.Timeout = time.Duration(cfg.Chatbot.TimeoutSeconds) * time.Second
	if cfg.Chatbot.HistoryTurns <= 0 {
		cfg.Chatbot.HistoryTurns = 10
	}

	GlobalConfig = &cfg

	return &cfg, nil
}

// MustLoadConfig nạp cấu hình, panic nếu thất bại
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("nạp cấu hình thất bại: %v", err))
	}
	return cfg
}

// GetConfig lấy cấu hình toàn cục
func GetConfig() *Config {
	if GlobalConfig == nil {
		panic("cấu hình chưa được khởi tạo, cần gọi LoadConfig trước")
	}
	return GlobalConfig
}

// PrintConfig in cấu hình hiện tại (ẩn thông tin nhạy cảm)
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	log.Printf("cấu hình hiện tại:")
	log.Printf("  máy chủ: %s (chế độ: %s)", GlobalConfig.Server.Port, GlobalConfig.Server.Mode)
	log.Printf("  CSDL: %s@%s:%s/%s",
		GlobalConfig.Database.Username,
		GlobalConfig.Database.Host,
		GlobalConfig.Database.Port,
		GlobalConfig.Database.DBName)
	log.Printf("  gửi mail: %v", GlobalConfig.Email.Enabled)
	log.Printf("  chatbot: %s (timeout %ds)", GlobalConfig.Chatbot.Model, GlobalConfig.Chatbot.TimeoutSeconds)
}

// SafeErrorMessage ở chế độ release không trả chi tiết lỗi nội bộ cho client
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}
