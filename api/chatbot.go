package api

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"quanlychitieu/config"
	"quanlychitieu/database"
	"quanlychitieu/middleware"
	"quanlychitieu/models"
	"quanlychitieu/service"

	"github.com/gin-gonic/gin"
)

// ChatbotHandler trợ lý hội thoại ghi chép thu chi.
//
// Đường chính đi qua mô hình ngôn ngữ với function-calling; khi mô hình lỗi
// hoặc quá thời gian chờ, yêu cầu được chuyển sang bộ phân tích lệnh dự phòng.
// Cả hai đường đều đổ về cùng một Dispatcher nên quy tắc nghiệp vụ không
// phụ thuộc vào đường đi.
type ChatbotHandler struct {
	cfg        *config.ChatbotConfig
	oracle     *service.Oracle
	dispatcher *service.Dispatcher
	fallback   *service.Fallback
}

// NewChatbotHandler tạo handler chatbot
func NewChatbotHandler(cfg *config.ChatbotConfig, oracle *service.Oracle, dispatcher *service.Dispatcher, fallback *service.Fallback) *ChatbotHandler {
	return &ChatbotHandler{
		cfg:        cfg,
		oracle:     oracle,
		dispatcher: dispatcher,
		fallback:   fallback,
	}
}

// ChatRequest một tin nhắn người dùng gửi cho trợ lý
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=2000" example:"thêm chi tiêu 50000 ăn uống"`
}

// ChatReply câu trả lời của trợ lý
type ChatReply struct {
	Reply       string `json:"reply"`
	Source      string `json:"source"` // oracle/fallback
	RefreshData bool   `json:"refresh_data"`
}

// systemPrompt dựng prompt hệ thống kèm ngày hiện tại và danh mục của
// người dùng để mô hình điền đúng category_id
func (h *ChatbotHandler) systemPrompt(userID uint) string {
	var b strings.Builder
	b.WriteString("Bạn là trợ lý quản lý chi tiêu cá nhân, trả lời ngắn gọn bằng tiếng Việt. ")
	b.WriteString("Khi người dùng muốn ghi chép, tìm kiếm, sửa hoặc xóa giao dịch, hãy gọi công cụ tương ứng thay vì chỉ trả lời. ")
	fmt.Fprintf(&b, "Hôm nay là %s. ", time.Now().Format("2006-01-02"))

	if list, err := h.dispatcher.ListCategories(userID); err == nil && len(list) > 0 {
		b.WriteString("Danh mục hiện có của người dùng: ")
		for i, cat := range list {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (id=%d)", cat.Name, cat.ID)
		}
		b.WriteString(".")
	}
	return b.String()
}

// recentHistory đọc các lượt hội thoại gần nhất, xếp từ cũ đến mới
func (h *ChatbotHandler) recentHistory(userID uint) []service.ChatTurn {
	turns := h.cfg.HistoryTurns
	if turns <= 0 {
		return nil
	}

	var rows []models.ChatMessage
	if err := database.DB.Where("user_id = ?", userID).
		Order("id DESC").Limit(turns).
		Find(&rows).Error; err != nil {
		log.Printf("đọc lịch sử hội thoại thất bại (user %d): %v", userID, err)
		return nil
	}

	history := make([]service.ChatTurn, 0, len(rows)*2)
	for i := len(rows) - 1; i >= 0; i-- {
		history = append(history,
			service.ChatTurn{Role: "user", Content: rows[i].UserText},
			service.ChatTurn{Role: "assistant", Content: rows[i].BotText},
		)
	}
	return history
}

// Message gửi tin nhắn cho trợ lý
// @Summary Gửi tin nhắn cho trợ lý
// @Description Gửi một câu lệnh tự nhiên cho trợ lý AI. Nếu dịch vụ AI lỗi hoặc quá thời gian chờ, hệ thống tự chuyển sang bộ lệnh văn bản dự phòng.
// @Tags Trợ lý
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChatRequest true "Nội dung tin nhắn"
// @Success 200 {object} Response{data=ChatReply} "Thành công"
// @Failure 400 {object} Response "Tham số không hợp lệ"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/chatbot/message [post]
func (h *ChatbotHandler) Message(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "tham số không hợp lệ"))
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		BadRequest(c, "tin nhắn không được để trống")
		return
	}

	reply := h.answer(c.Request.Context(), userID, text)

	// Lịch sử lưu best-effort, lỗi không làm mất câu trả lời
	record := models.ChatMessage{
		UserID:   userID,
		UserText: text,
		BotText:  reply.Reply,
		Source:   reply.Source,
	}
	if err := database.DB.Create(&record).Error; err != nil {
		log.Printf("lưu lịch sử hội thoại thất bại (user %d): %v", userID, err)
	}

	Success(c, reply)
}

// answer chạy đường mô hình ngôn ngữ, rơi về bộ dự phòng khi lỗi
func (h *ChatbotHandler) answer(parent context.Context, userID uint, text string) ChatReply {
	ctx, cancel := context.WithTimeout(parent, h.cfg.Timeout)
	defer cancel()

	resp, err := h.oracle.Request(ctx, h.systemPrompt(userID), h.recentHistory(userID), text, service.ToolSchemas())
	if err != nil {
		log.Printf("gọi mô hình thất bại, chuyển sang dự phòng (user %d): %v", userID, err)
		replyText, refresh := h.fallback.Handle(userID, text)
		return ChatReply{Reply: replyText, Source: models.ChatSourceFallback, RefreshData: refresh}
	}

	// Không có lệnh công cụ: trả thẳng câu của mô hình
	if len(resp.ToolCalls) == 0 {
		replyText := strings.TrimSpace(resp.Text)
		if replyText == "" {
			replyText = "Tôi chưa hiểu yêu cầu, bạn có thể nói rõ hơn không?"
		}
		return ChatReply{Reply: replyText, Source: models.ChatSourceOracle}
	}

	// Thực thi từng lệnh công cụ rồi ghép thông báo kết quả làm câu trả lời,
	// không gọi lại mô hình lần hai
	var parts []string
	refresh := false
	for _, call := range resp.ToolCalls {
		res := h.dispatcher.Dispatch(userID, call.Name, call.Arguments)
		if msg := res.Message(); msg != "" {
			parts = append(parts, msg)
		}
		if res.RefreshData() {
			refresh = true
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "Đã xử lý yêu cầu của bạn.")
	}

	return ChatReply{
		Reply:       strings.Join(parts, "\n"),
		Source:      models.ChatSourceOracle,
		RefreshData: refresh,
	}
}

// History lịch sử hội thoại
// @Summary Lịch sử hội thoại
// @Description Lấy lịch sử hội thoại với trợ lý, mới nhất trước
// @Tags Trợ lý
// @Produce json
// @Security BearerAuth
// @Param page query int false "Trang" default(1)
// @Param page_size query int false "Số dòng mỗi trang" default(20)
// @Success 200 {object} Response{data=PageResponse{list=[]models.ChatMessage}} "Thành công"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/chatbot/history [get]
func (h *ChatbotHandler) History(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	query := database.DB.Model(&models.ChatMessage{}).Where("user_id = ?", userID)

	var total int64
	query.Count(&total)

	var list []models.ChatMessage
	if err := query.Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "đọc lịch sử thất bại"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		List:     list,
	})
}
