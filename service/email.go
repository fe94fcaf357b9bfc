package service

import (
	"fmt"

	"quanlychitieu/config"

	"gopkg.in/gomail.v2"
)

// EmailService dịch vụ gửi mail
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService tạo dịch vụ gửi mail
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendBudgetAlertEmail gửi mail cảnh báo ngân sách cho người dùng
func (s *EmailService) SendBudgetAlertEmail(toEmail, username, alertMessage string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("dịch vụ mail chưa bật, cần cấu hình email.enabled=true")
	}

	subject := "【Quản Lý Chi Tiêu】Cảnh báo ngân sách"
	body := s.generateAlertEmailBody(username, alertMessage)

	return s.sendEmail(toEmail, subject, body)
}

// generateAlertEmailBody sinh nội dung mail cảnh báo
func (s *EmailService) generateAlertEmailBody(username, alertMessage string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #ef4444, #dc2626); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .alert-box { background: #fef2f2; border-left: 4px solid #ef4444; padding: 20px; margin: 20px 0; border-radius: 4px; }
        .alert-box p { margin: 0; color: #991b1b; font-weight: 600; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 Quản Lý Chi Tiêu</h1>
        </div>
        <div class="content">
            <p>Chào <strong>%s</strong>,</p>
            <p>Hệ thống vừa ghi nhận chi tiêu của bạn chạm ngưỡng ngân sách:</p>
            <div class="alert-box">
                <p>⚠️ %s</p>
            </div>
            <p>Hãy mở ứng dụng để xem chi tiết và cân đối lại chi tiêu nhé.</p>
        </div>
        <div class="footer">
            <p>Email được gửi tự động, vui lòng không trả lời</p>
            <p>© Quản Lý Chi Tiêu - trợ lý tài chính cá nhân của bạn</p>
        </div>
    </div>
</body>
</html>
`, username, alertMessage)
}

// sendEmail gửi mail
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("gửi mail thất bại: %w", err)
	}

	return nil
}

// SendTestEmail gửi mail kiểm tra cấu hình
func (s *EmailService) SendTestEmail(toEmail string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("dịch vụ mail chưa bật")
	}

	subject := "【Quản Lý Chi Tiêu】Kiểm tra cấu hình mail"
	body := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>✅ Cấu hình mail thành công</h2>
    <p>Nếu bạn nhận được email này, dịch vụ mail đã hoạt động.</p>
    <p style="color: #666;">—— Quản Lý Chi Tiêu</p>
</body>
</html>
`
	return s.sendEmail(toEmail, subject, body)
}
