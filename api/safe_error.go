package api

import (
	"quanlychitieu/config"
)

// SafeErrorMessage ở môi trường production không trả chi tiết lỗi nội bộ
// cho client, tránh lộ thông tin
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}
