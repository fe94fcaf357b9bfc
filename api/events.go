package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quanlychitieu/middleware"
	"quanlychitieu/service"

	"github.com/gin-gonic/gin"
)

// EventHandler đẩy sự kiện thời gian thực (cảnh báo ngân sách, dữ liệu
// thay đổi) cho client qua Server-Sent Events
type EventHandler struct {
	bus *service.Bus
}

// NewEventHandler tạo handler sự kiện
func NewEventHandler(bus *service.Bus) *EventHandler {
	return &EventHandler{bus: bus}
}

// writeSSEJSON ghi một sự kiện SSE với payload JSON
func writeSSEJSON(w http.ResponseWriter, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// Stream luồng sự kiện SSE
// @Summary Luồng sự kiện
// @Description Mở kết nối Server-Sent Events nhận thông báo cảnh báo ngân sách và tín hiệu tải lại dữ liệu
// @Tags Sự kiện
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "Luồng sự kiện"
// @Failure 401 {object} Response "Chưa đăng nhập"
// @Router /api/v1/events [get]
func (h *EventHandler) Stream(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	ch, cancel := h.bus.Subscribe(userID)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Flush()

	// heartbeat giữ kết nối qua proxy
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSEJSON(c.Writer, ev.Kind, ev); err != nil {
				return
			}
			c.Writer.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
