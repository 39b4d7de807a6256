// Package response 聊天接口的统一 JSON 信封
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 信封状态
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// Response 统一响应结构
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// AnswerResponse 非流式问答响应，answer 与 sessionId 位于顶层
type AnswerResponse struct {
	Status    string `json:"status"`
	Answer    string `json:"answer"`
	SessionID string `json:"sessionId"`
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Status: StatusOK, Data: data})
}

// Answer 非流式问答成功响应
func Answer(c *gin.Context, answer, sessionID string) {
	c.JSON(http.StatusOK, AnswerResponse{Status: StatusOK, Answer: answer, SessionID: sessionID})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, Response{Status: StatusFailed, Message: message})
}

// Abort 错误响应并终止后续中间件
func Abort(c *gin.Context, httpCode int, message string) {
	c.AbortWithStatusJSON(httpCode, Response{Status: StatusFailed, Message: message})
}
