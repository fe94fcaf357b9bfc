package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quanlychitieu/config"
	"quanlychitieu/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatbotRouter(cfg *config.ChatbotConfig) *gin.Engine {
	dispatcher := service.NewDispatcher(nil)
	handler := NewChatbotHandler(cfg, service.NewOracle(cfg), dispatcher, service.NewFallback(dispatcher))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/chatbot/message", handler.Message)
	router.GET("/chatbot/history", handler.History)
	return router
}

func postChat(router *gin.Engine, message string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(gin.H{"message": message})
	req := httptest.NewRequest("POST", "/chatbot/message", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatbotHandler_FallbackWhenOracleUnavailable(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// api_key rỗng: đường mô hình lỗi ngay, yêu cầu phải rơi về bộ dự phòng
	cfg := &config.ChatbotConfig{
		BaseURL:      "https://api.openai.com/v1",
		Timeout:      time.Second,
		HistoryTurns: 2,
	}

	// prompt hệ thống đọc danh mục, rồi đọc lịch sử hội thoại
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).AddRow(3, 1, "Ăn uống"))
	mock.ExpectQuery("SELECT .* FROM `chat_messages`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	// lượt hội thoại được lưu lại dù đi đường dự phòng
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chat_messages`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := newChatbotRouter(cfg)
	w := postChat(router, "trợ giúp")

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "fallback", data["source"])
	assert.Contains(t, data["reply"], "tạo danh mục")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChatbotHandler_OracleToolCall(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// mô hình giả trả về một lệnh gọi công cụ createCategory
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{
				"message": {
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "createCategory", "arguments": "{\"name\":\"Du lịch\"}"}
					}]
				}
			}]
		}`))
	}))
	defer srv.Close()

	cfg := &config.ChatbotConfig{
		BaseURL:      srv.URL,
		APIKey:       "sk-test",
		Model:        "gpt-4o-mini",
		Timeout:      time.Second,
		HistoryTurns: 2,
	}

	// prompt hệ thống + lịch sử
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectQuery("SELECT .* FROM `chat_messages`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	// dispatcher tạo danh mục
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectCommit()

	// lưu lượt hội thoại
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chat_messages`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := newChatbotRouter(cfg)
	w := postChat(router, "tạo cho tôi danh mục du lịch")

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "oracle", data["source"])
	assert.Equal(t, "Đã tạo danh mục \"Du lịch\"", data["reply"])
	assert.Equal(t, true, data["refresh_data"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChatbotHandler_History(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `chat_messages`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM `chat_messages`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "user_text", "bot_text", "source"}).
			AddRow(1, 1, "trợ giúp", "Trợ lý đang ở chế độ ngoại tuyến...", "fallback"))

	cfg := &config.ChatbotConfig{Timeout: time.Second}
	router := newChatbotRouter(cfg)

	req := httptest.NewRequest("GET", "/chatbot/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	require.NoError(t, mock.ExpectationsWereMet())
}
