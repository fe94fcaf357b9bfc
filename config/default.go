package config

import _ "embed"

// DefaultConfigYAML cấu hình mặc định nhúng trong binary,
// file ngoài và biến môi trường có thể ghi đè từng khóa.
//
//go:embed default.yaml
var DefaultConfigYAML []byte
