package interfaces

import (
	"github.com/wacana/backend/internal/interfaces/http"
)

// HTTPServer HTTP 服务器类型别名
type HTTPServer = http.HTTPServer
