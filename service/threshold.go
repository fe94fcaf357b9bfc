package service

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// ThresholdNone chưa chạm ngưỡng nào
	ThresholdNone = "none"
	// ThresholdWarning đã đạt >= 90% ngân sách
	ThresholdWarning = "warning"
	// ThresholdExceeded đã vượt ngân sách (chi > hạn mức, so sánh chặt)
	ThresholdExceeded = "exceeded"
)

const (
	// SeverityMedium mức cảnh báo
	SeverityMedium = "medium"
	// SeverityHigh mức vượt ngưỡng
	SeverityHigh = "high"
)

const (
	// ScopeTotal ngân sách tổng của tháng
	ScopeTotal = "total"
	// ScopeCategory hạn mức của một danh mục
	ScopeCategory = "category"
)

// Scope phạm vi đánh giá ngưỡng
type Scope struct {
	Kind string // total/category
	Name string // tên danh mục khi Kind == category
}

// Label nhãn hiển thị của phạm vi trong câu cảnh báo
func (s Scope) Label() string {
	if s.Kind == ScopeCategory {
		return fmt.Sprintf("Danh mục \"%s\"", s.Name)
	}
	return "Tổng chi tiêu"
}

// ThresholdResult kết quả đánh giá ngưỡng ngân sách
type ThresholdResult struct {
	State    string  // none/warning/exceeded
	Severity string  // medium/high (rỗng khi none)
	Message  string  // câu cảnh báo hiển thị cho người dùng
	Percent  float64 // phần trăm đã chi so với hạn mức
}

var vnPrinter = message.NewPrinter(language.Vietnamese)

// FormatVND định dạng số tiền theo kiểu Việt Nam (chấm ngăn cách hàng nghìn)
func FormatVND(amount float64) string {
	return vnPrinter.Sprintf("%v₫", number.Decimal(amount, number.MaxFractionDigits(0)))
}

// EvaluateThreshold đánh giá mức chi so với hạn mức.
// Quy tắc ranh giới phải giữ nguyên: vượt chỉ khi chi > hạn mức (so sánh chặt),
// cảnh báo khi phần trăm >= 90; chi đúng bằng hạn mức là cảnh báo 100%,
// không phải vượt. Hạn mức <= 0 nghĩa là chưa đặt ngân sách, không đánh giá.
func EvaluateThreshold(spent, limit float64, scope Scope) ThresholdResult {
	// Hạn mức <= 0 (kể cả âm) luôn là "chưa đặt ngân sách"
	if limit <= 0 {
		return ThresholdResult{State: ThresholdNone}
	}
	spent = math.Abs(spent)

	percent := spent / limit * 100

	if spent > limit {
		return ThresholdResult{
			State:    ThresholdExceeded,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("%s đã vượt ngân sách %s", scope.Label(), FormatVND(limit)),
			Percent:  percent,
		}
	}

	if percent >= 90 {
		return ThresholdResult{
			State:    ThresholdWarning,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("%s đã đạt %d%% ngân sách %s",
				scope.Label(), int(math.Round(percent)), FormatVND(limit)),
			Percent: percent,
		}
	}

	return ThresholdResult{State: ThresholdNone, Percent: percent}
}
