package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"quanlychitieu/database"
	"quanlychitieu/middleware"
	"quanlychitieu/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler xuất giao dịch ra file CSV/Excel
type ExportHandler struct{}

// NewExportHandler tạo handler xuất dữ liệu
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

var exportHeaders = []string{"ID", "Loại", "Danh mục", "Số tiền", "Ghi chú", "Thời gian"}

// exportRows đọc giao dịch của một tháng kèm tên danh mục, mới nhất trước
func exportRows(userID uint, start, end time.Time) ([]models.Transaction, error) {
	var list []models.Transaction
	err := database.DB.Preload("Category").
		Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?", userID, start, end).
		Order("occurred_at DESC").
		Find(&list).Error
	return list, err
}

func typeLabel(t string) string {
	if t == models.TransactionTypeIncome {
		return "Thu nhập"
	}
	return "Chi tiêu"
}

// CSV xuất giao dịch ra CSV
// @Summary Xuất CSV
// @Description Xuất giao dịch của một tháng ra file CSV (UTF-8 có BOM để Excel đọc đúng tiếng Việt)
// @Tags Xuất dữ liệu
// @Produce text/csv
// @Security BearerAuth
// @Param month query string false "Khóa tháng, ví dụ \"May 2025\" (mặc định tháng hiện tại)"
// @Success 200 {file} csv "File CSV"
// @Failure 400 {object} Response "Tháng không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) CSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	key, start, end, err := monthRange(c.Query("month"))
	if err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	list, err := exportRows(userID, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "đọc giao dịch thất bại"))
		return
	}

	var buf bytes.Buffer
	// BOM để Excel trên Windows nhận diện UTF-8
	buf.WriteString("\xEF\xBB\xBF")

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		InternalError(c, SafeErrorMessage(err, "ghi file thất bại"))
		return
	}
	for _, tx := range list {
		record := []string{
			fmt.Sprintf("%d", tx.ID),
			typeLabel(tx.Type),
			tx.Category.Name,
			fmt.Sprintf("%.0f", tx.Amount),
			tx.Note,
			tx.OccurredAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(record); err != nil {
			InternalError(c, SafeErrorMessage(err, "ghi file thất bại"))
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		InternalError(c, SafeErrorMessage(err, "ghi file thất bại"))
		return
	}

	filename := fmt.Sprintf("giao-dich-%s.csv", start.Format("2006-01"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Export-Month", key)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Excel xuất giao dịch ra Excel
// @Summary Xuất Excel
// @Description Xuất giao dịch của một tháng ra file Excel (.xlsx)
// @Tags Xuất dữ liệu
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param month query string false "Khóa tháng, ví dụ \"May 2025\" (mặc định tháng hiện tại)"
// @Success 200 {file} xlsx "File Excel"
// @Failure 400 {object} Response "Tháng không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) Excel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	key, start, end, err := monthRange(c.Query("month"))
	if err != nil {
		BadRequest(c, "tháng không hợp lệ, định dạng đúng: \"May 2025\"")
		return
	}

	list, err := exportRows(userID, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "đọc giao dịch thất bại"))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Giao dịch"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})

	for i, title := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, tx := range list {
		values := []interface{}{
			tx.ID,
			typeLabel(tx.Type),
			tx.Category.Name,
			tx.Amount,
			tx.Note,
			tx.OccurredAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "B", "C", 14)
	f.SetColWidth(sheet, "D", "D", 14)
	f.SetColWidth(sheet, "E", "E", 30)
	f.SetColWidth(sheet, "F", "F", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		InternalError(c, SafeErrorMessage(err, "ghi file thất bại"))
		return
	}

	filename := fmt.Sprintf("giao-dich-%s.xlsx", start.Format("2006-01"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Export-Month", key)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
