package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"quanlychitieu/config"
)

// ChatTurn một lượt hội thoại gửi lên mô hình
type ChatTurn struct {
	Role    string `json:"role"` // system/user/assistant
	Content string `json:"content"`
}

// ToolSchema mô tả một công cụ theo định dạng function-calling của OpenAI
type ToolSchema struct {
	Type     string             `json:"type"`
	Function ToolSchemaFunction `json:"function"`
}

// ToolSchemaFunction phần khai báo hàm của một công cụ
type ToolSchemaFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCall một lệnh gọi công cụ mà mô hình trả về
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// OracleResponse kết quả một lượt gọi mô hình
type OracleResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// Oracle client gọi dịch vụ mô hình ngôn ngữ qua API tương thích OpenAI
// (chat/completions, không streaming vì cần đọc tool_calls trọn vẹn).
// Mọi lượt gọi đều bị chặn thời gian bởi context của caller; quá hạn hay
// lỗi mạng đều trả error để caller chuyển sang đường dự phòng.
type Oracle struct {
	cfg        *config.ChatbotConfig
	httpClient *http.Client
}

// NewOracle tạo client mô hình ngôn ngữ
func NewOracle(cfg *config.ChatbotConfig) *Oracle {
	return &Oracle{
		cfg: cfg,
		httpClient: &http.Client{
			// không đặt Timeout ở đây: deadline do context quyết định
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// chatCompletionResponse cấu trúc trả về của chat/completions
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Request gửi một lượt hội thoại kèm danh sách công cụ và nhận về
// câu trả lời hoặc các lệnh gọi công cụ.
func (o *Oracle) Request(ctx context.Context, systemPrompt string, history []ChatTurn, userText string, tools []ToolSchema) (*OracleResponse, error) {
	if o.cfg.APIKey == "" {
		return nil, fmt.Errorf("chatbot chưa được cấu hình api_key")
	}

	messages := make([]ChatTurn, 0, len(history)+2)
	messages = append(messages, ChatTurn{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ChatTurn{Role: "user", Content: userText})

	requestBody := map[string]interface{}{
		"model":       o.cfg.Model,
		"messages":    messages,
		"temperature": 0.3,
	}
	if len(tools) > 0 {
		requestBody["tools"] = tools
		requestBody["tool_choice"] = "auto"
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("tạo request thất bại: %w", err)
	}

	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("tạo request thất bại: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gọi dịch vụ AI thất bại: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("đọc phản hồi thất bại: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dịch vụ AI trả lỗi %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("phân tích phản hồi thất bại: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("dịch vụ AI không trả lựa chọn nào")
	}

	msg := parsed.Choices[0].Message
	out := &OracleResponse{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}
