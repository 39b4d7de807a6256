package middleware

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// EnsureUTF8Body 请求体不是合法 UTF-8 时按 Windows-1252 解码
// 部分 Windows 客户端以系统代码页发送带重音字符的文本
func EnsureUTF8Body() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		c.Request.Body.Close()
		if err != nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			c.Next()
			return
		}

		if !utf8.Valid(body) {
			if converted, err := decodeWindows1252(body); err == nil && utf8.Valid(converted) {
				body = converted
				c.Request.ContentLength = int64(len(body))
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

func decodeWindows1252(b []byte) ([]byte, error) {
	return io.ReadAll(transform.NewReader(bytes.NewReader(b), charmap.Windows1252.NewDecoder()))
}
