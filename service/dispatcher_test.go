package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingAlerts đếm số lần bộ cảnh báo được kích hoạt
type recordingAlerts struct {
	calls      int
	categoryID uint
}

func (r *recordingAlerts) CheckAfterExpenseChange(userID, categoryID uint, occurredAt time.Time) {
	r.calls++
	r.categoryID = categoryID
}

func categoryRows(id uint, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "color", "sort"}).
		AddRow(id, 1, name, "#ef4444", 0)
}

func TestDispatcher_CreateTransaction_Expense(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	alerts := &recordingAlerts{}
	d := NewDispatcher(alerts)

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(uint(3), uint(1)).
		WillReturnRows(categoryRows(3, "Ăn uống"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()

	args := json.RawMessage(`{"category_id":3,"type":"expense","amount":45000,"date":"2025-05-15","note":"bún bò"}`)
	res := d.Dispatch(1, ToolCreateTransaction, args)

	assert.True(t, res.Success())
	assert.True(t, res.RefreshData())
	assert.Contains(t, res.Message(), "45.000₫")
	assert.Contains(t, res.Message(), "Ăn uống")

	// giao dịch chi tiêu phải kích hoạt kiểm tra ngân sách
	assert.Equal(t, 1, alerts.calls)
	assert.Equal(t, uint(3), alerts.categoryID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatcher_CreateTransaction_IncomeSkipsAlerts(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	alerts := &recordingAlerts{}
	d := NewDispatcher(alerts)

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(categoryRows(8, "Lương"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	args := json.RawMessage(`{"category_id":8,"type":"income","amount":15000000,"date":"2025-05-01"}`)
	res := d.Dispatch(1, ToolCreateTransaction, args)

	assert.True(t, res.Success())
	// thu nhập không bao giờ kích hoạt cảnh báo ngân sách
	assert.Equal(t, 0, alerts.calls)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatcher_CreateTransaction_InvalidCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	alerts := &recordingAlerts{}
	d := NewDispatcher(alerts)

	// danh mục không tồn tại (hoặc của người dùng khác)
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	args := json.RawMessage(`{"category_id":999,"type":"expense","amount":45000,"date":"2025-05-15"}`)
	res := d.Dispatch(1, ToolCreateTransaction, args)

	// thất bại gọn gàng: không chèn giao dịch, không chạy cảnh báo
	assert.False(t, res.Success())
	assert.Contains(t, res.Message(), "danh mục không tồn tại")
	assert.Equal(t, 0, alerts.calls)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatcher_CreateTransaction_Validation(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	d := NewDispatcher(nil)

	// loại sai
	res := d.Dispatch(1, ToolCreateTransaction,
		json.RawMessage(`{"category_id":1,"type":"transfer","amount":1000,"date":"2025-05-15"}`))
	assert.False(t, res.Success())

	// số tiền không dương
	res = d.Dispatch(1, ToolCreateTransaction,
		json.RawMessage(`{"category_id":1,"type":"expense","amount":0,"date":"2025-05-15"}`))
	assert.False(t, res.Success())

	// ngày sai định dạng
	res = d.Dispatch(1, ToolCreateTransaction,
		json.RawMessage(`{"category_id":1,"type":"expense","amount":1000,"date":"15/05/2025"}`))
	assert.False(t, res.Success())
	assert.Contains(t, res.Message(), "ngày không hợp lệ")
}

func TestDispatcher_DeleteTransaction(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	alerts := &recordingAlerts{}
	d := NewDispatcher(alerts)

	occurred := time.Date(2025, 5, 10, 9, 0, 0, 0, time.Local)
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "type", "amount", "occurred_at"}).
			AddRow(7, 1, 3, "expense", 120000, occurred))

	// xóa mềm là một câu UPDATE deleted_at
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `transactions` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res := d.Dispatch(1, ToolDeleteTransaction, json.RawMessage(`{"transaction_id":7}`))

	assert.True(t, res.Success())
	assert.True(t, res.RefreshData())
	assert.Contains(t, res.Message(), "#7")

	// xóa chi tiêu cũng phải đánh giá lại ngân sách của tháng đó
	assert.Equal(t, 1, alerts.calls)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatcher_DeleteTransaction_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	d := NewDispatcher(nil)

	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	res := d.Dispatch(1, ToolDeleteTransaction, json.RawMessage(`{"transaction_id":999}`))
	assert.False(t, res.Success())
	assert.Contains(t, res.Message(), "giao dịch không tồn tại")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatcher_CreateCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	d := NewDispatcher(nil)

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectCommit()

	res := d.Dispatch(1, ToolCreateCategory, json.RawMessage(`{"name":"  Du lịch  "}`))

	assert.True(t, res.Success())
	// tên được cắt khoảng trắng trước khi lưu
	assert.Equal(t, "Đã tạo danh mục \"Du lịch\"", res.Message())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatcher_CreateCategory_Duplicate(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	d := NewDispatcher(nil)

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(categoryRows(3, "Ăn uống"))

	res := d.Dispatch(1, ToolCreateCategory, json.RawMessage(`{"name":"Ăn uống"}`))
	assert.False(t, res.Success())
	assert.Contains(t, res.Message(), "đã tồn tại")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatcher_SearchTransactions(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	d := NewDispatcher(nil)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "type", "amount"}).
			AddRow(1, 1, 3, "expense", 45000).
			AddRow(2, 1, 3, "expense", 80000))

	res := d.Dispatch(1, ToolSearchTransactions, json.RawMessage(`{"type":"expense","keyword":"bún"}`))

	assert.True(t, res.Success())
	assert.Contains(t, res.Message(), "2 giao dịch")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatcher_UnknownTool(t *testing.T) {
	d := NewDispatcher(nil)

	res := d.Dispatch(1, "dropAllTables", json.RawMessage(`{}`))
	assert.False(t, res.Success())
	assert.Contains(t, res.Message(), "không được hỗ trợ")
}
