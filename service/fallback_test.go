package service

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		hasK bool
		want float64
	}{
		{"50000", false, 50000},
		{"50.000", false, 50000},
		{"1,200,000", false, 1200000},
		{"50", true, 50000},
		{"1.5", true, 15000}, // dấu chấm bị coi là ngăn cách nghìn, không phải thập phân
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.in, tc.hasK)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := parseAmount("abc", false)
	assert.Error(t, err)
}

func TestFallback_Help(t *testing.T) {
	f := NewFallback(NewDispatcher(nil))

	for _, text := range []string{"trợ giúp", "help", "Hướng dẫn"} {
		reply, refresh := f.Handle(1, text)
		assert.Contains(t, reply, "tạo danh mục", text)
		assert.False(t, refresh)
	}
}

func TestFallback_UnknownCommandShowsHelp(t *testing.T) {
	f := NewFallback(NewDispatcher(nil))

	reply, refresh := f.Handle(1, "xyz không phải lệnh nào cả")
	assert.Contains(t, reply, "bạn có thể dùng các lệnh sau")
	assert.False(t, refresh)
}

func TestFallback_CreateCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	f := NewFallback(NewDispatcher(nil))

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(15, 1))
	mock.ExpectCommit()

	reply, refresh := f.Handle(1, "tạo danh mục Ăn sáng")

	assert.Equal(t, "Đã tạo danh mục \"Ăn sáng\"", reply)
	assert.True(t, refresh)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFallback_CreateExpense(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	f := NewFallback(NewDispatcher(nil))

	// tìm danh mục theo tên
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(uint(1), "ăn uống").
		WillReturnRows(categoryRows(3, "ăn uống"))

	// dispatcher kiểm tra lại danh mục theo id rồi chèn giao dịch
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(categoryRows(3, "ăn uống"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(20, 1))
	mock.ExpectCommit()

	reply, refresh := f.Handle(1, "thêm chi tiêu 50k ăn uống")

	assert.Contains(t, reply, "50.000₫")
	assert.True(t, refresh)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFallback_CreateExpense_UnknownCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	f := NewFallback(NewDispatcher(nil))

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	reply, refresh := f.Handle(1, "thêm chi tiêu 50000 danh mục lạ")

	assert.Contains(t, reply, "Không tìm thấy danh mục")
	assert.False(t, refresh)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFallback_DeleteTransaction(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	f := NewFallback(NewDispatcher(nil))

	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "type", "amount"}).
			AddRow(7, 1, 3, "income", 500000))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `transactions` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reply, refresh := f.Handle(1, "xóa giao dịch #7")

	assert.Contains(t, reply, "#7")
	assert.True(t, refresh)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFallback_ListCategories(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	f := NewFallback(NewDispatcher(nil))

	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "color", "sort"}).
			AddRow(1, 1, "Ăn uống", "#ef4444", 0).
			AddRow(2, 1, "Di chuyển", "#3b82f6", 1))

	reply, refresh := f.Handle(1, "danh sách danh mục")

	assert.Contains(t, reply, "Ăn uống")
	assert.Contains(t, reply, "Di chuyển")
	assert.False(t, refresh)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFallback_NeverPanics(t *testing.T) {
	// dispatcher nil làm mọi nhánh lệnh panic; người dùng vẫn phải nhận
	// được một câu xin lỗi thay vì lỗi 500
	f := NewFallback(nil)

	require.NotPanics(t, func() {
		reply, refresh := f.Handle(1, "tạo danh mục Test")
		assert.Equal(t, fallbackApology, reply)
		assert.False(t, refresh)
	})
}
