package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVND(t *testing.T) {
	assert.Equal(t, "1.000.000₫", FormatVND(1000000))
	assert.Equal(t, "5.000.000₫", FormatVND(5000000))
	assert.Equal(t, "500₫", FormatVND(500))
	assert.Equal(t, "0₫", FormatVND(0))
	// phần lẻ bị cắt, tiền Việt không dùng số thập phân
	assert.Equal(t, "45.000₫", FormatVND(45000.49))
}

func TestScopeLabel(t *testing.T) {
	assert.Equal(t, "Tổng chi tiêu", Scope{Kind: ScopeTotal}.Label())
	assert.Equal(t, "Danh mục \"Ăn uống\"", Scope{Kind: ScopeCategory, Name: "Ăn uống"}.Label())
}

func TestEvaluateThreshold_NoBudget(t *testing.T) {
	// hạn mức <= 0 nghĩa là chưa đặt ngân sách, không bao giờ đánh giá
	for _, limit := range []float64{0, -1, -5000000} {
		res := EvaluateThreshold(4000000, limit, Scope{Kind: ScopeTotal})
		assert.Equal(t, ThresholdNone, res.State, "limit=%v", limit)
		assert.Empty(t, res.Severity)
		assert.Empty(t, res.Message)
	}
}

func TestEvaluateThreshold_Exceeded(t *testing.T) {
	res := EvaluateThreshold(5200000, 5000000, Scope{Kind: ScopeTotal})

	assert.Equal(t, ThresholdExceeded, res.State)
	assert.Equal(t, SeverityHigh, res.Severity)
	assert.Equal(t, "Tổng chi tiêu đã vượt ngân sách 5.000.000₫", res.Message)
	assert.InDelta(t, 104, res.Percent, 0.01)
}

func TestEvaluateThreshold_ExceededCategory(t *testing.T) {
	res := EvaluateThreshold(1100000, 1000000, Scope{Kind: ScopeCategory, Name: "Ăn uống"})

	assert.Equal(t, ThresholdExceeded, res.State)
	assert.Equal(t, "Danh mục \"Ăn uống\" đã vượt ngân sách 1.000.000₫", res.Message)
}

func TestEvaluateThreshold_Warning(t *testing.T) {
	res := EvaluateThreshold(4500000, 5000000, Scope{Kind: ScopeTotal})

	assert.Equal(t, ThresholdWarning, res.State)
	assert.Equal(t, SeverityMedium, res.Severity)
	assert.Equal(t, "Tổng chi tiêu đã đạt 90% ngân sách 5.000.000₫", res.Message)
	assert.InDelta(t, 90, res.Percent, 0.01)
}

func TestEvaluateThreshold_Boundaries(t *testing.T) {
	scope := Scope{Kind: ScopeTotal}

	// ngay dưới 90%: chưa có gì
	res := EvaluateThreshold(4499999, 5000000, scope)
	assert.Equal(t, ThresholdNone, res.State)

	// đúng 90%: cảnh báo
	res = EvaluateThreshold(4500000, 5000000, scope)
	assert.Equal(t, ThresholdWarning, res.State)

	// chi đúng bằng hạn mức: cảnh báo 100%, KHÔNG phải vượt (so sánh chặt)
	res = EvaluateThreshold(5000000, 5000000, scope)
	assert.Equal(t, ThresholdWarning, res.State)
	assert.Contains(t, res.Message, "100%")

	// vượt hạn mức dù chỉ 1 đồng
	res = EvaluateThreshold(5000001, 5000000, scope)
	assert.Equal(t, ThresholdExceeded, res.State)
}

func TestEvaluateThreshold_NegativeSpent(t *testing.T) {
	// chi âm (dữ liệu hoàn tiền) được lấy trị tuyệt đối trước khi so sánh
	res := EvaluateThreshold(-4800000, 5000000, Scope{Kind: ScopeTotal})
	assert.Equal(t, ThresholdWarning, res.State)
	assert.InDelta(t, 96, res.Percent, 0.01)
}

func TestEvaluateThreshold_PercentRounding(t *testing.T) {
	// phần trăm trong câu cảnh báo được làm tròn về số nguyên gần nhất
	res := EvaluateThreshold(949000, 1000000, Scope{Kind: ScopeCategory, Name: "Di chuyển"})
	assert.Equal(t, ThresholdWarning, res.State)
	assert.Contains(t, res.Message, "95%")
}
