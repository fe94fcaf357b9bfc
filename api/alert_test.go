package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertHandler_List(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `alerts`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT .* FROM `alerts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "message", "type", "triggered_at"}).
			AddRow(2, 1, "Tổng chi tiêu đã vượt ngân sách 5.000.000₫", "total_limit", time.Now()).
			AddRow(1, 1, "Danh mục \"Ăn uống\" đã đạt 92% ngân sách 1.000.000₫", "category_limit", time.Now()))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/alerts", NewAlertHandler().List)

	req := httptest.NewRequest("GET", "/alerts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertHandler_List_InvalidType(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/alerts", NewAlertHandler().List)

	req := httptest.NewRequest("GET", "/alerts?type=khong_ton_tai", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestAlertHandler_Delete(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `alerts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "message", "type"}).
			AddRow(3, 1, "câu cảnh báo", "total_limit"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `alerts` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.DELETE("/alerts/:id", NewAlertHandler().Delete)

	req := httptest.NewRequest("DELETE", "/alerts/3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertHandler_DeleteAll(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `alerts` SET `deleted_at`").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.DELETE("/alerts", NewAlertHandler().DeleteAll)

	req := httptest.NewRequest("DELETE", "/alerts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(5), data["deleted"])
	require.NoError(t, mock.ExpectationsWereMet())
}
