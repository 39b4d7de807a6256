package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"syscall"
)

// Kind 单次调用失败的类型
type Kind int

const (
	// KindRetryable 可切换到下一个候选模型
	KindRetryable Kind = iota + 1
	// KindFatal 立即终止回退
	KindFatal
)

// String 返回类型名
func (k Kind) String() string {
	switch k {
	case KindRetryable:
		return "retryable"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// retryableStatus 可重试的 HTTP 状态码
var retryableStatus = map[int]bool{
	408: true,
	409: true,
	425: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// ProviderError 单次模型调用失败
type ProviderError struct {
	Kind       Kind
	Model      string
	StatusCode int
	// Code 传输层错误码，如 ETIMEDOUT、ECONNRESET
	Code    string
	Message string
	Err     error
}

// Error 实现 error
func (e *ProviderError) Error() string {
	detail := e.Message
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("provider request failed (model %s): status %d: %s", e.Model, e.StatusCode, detail)
	case e.Code != "":
		return fmt.Sprintf("provider request failed (model %s): %s: %s", e.Model, e.Code, detail)
	default:
		return fmt.Sprintf("provider request failed (model %s): %s", e.Model, detail)
	}
}

// Unwrap 返回底层错误
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable 是否可切换模型重试
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindRetryable
}

// ClassifyStatus HTTP 状态码分类
func ClassifyStatus(status int) Kind {
	if retryableStatus[status] {
		return KindRetryable
	}
	return KindFatal
}

// statusError 构造 HTTP 状态错误
func statusError(model string, status int, message string) *ProviderError {
	return &ProviderError{
		Kind:       ClassifyStatus(status),
		Model:      model,
		StatusCode: status,
		Message:    message,
	}
}

// transportError 将传输层错误归类：超时、连接重置、DNS 失败可重试
func transportError(model string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	kind, code := classifyTransport(err)
	return &ProviderError{
		Kind:  kind,
		Model: model,
		Code:  code,
		Err:   err,
	}
}

func classifyTransport(err error) (Kind, string) {
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindRetryable, "ETIMEDOUT"
	case errors.Is(err, context.Canceled):
		return KindFatal, "ECANCELED"
	case errors.As(err, &dnsErr):
		if dnsErr.IsTemporary {
			return KindRetryable, "EAI_AGAIN"
		}
		return KindRetryable, "ENOTFOUND"
	case errors.Is(err, syscall.ECONNRESET):
		return KindRetryable, "ECONNRESET"
	case errors.Is(err, syscall.ECONNABORTED):
		return KindRetryable, "ECONNABORTED"
	case errors.Is(err, syscall.EPIPE):
		return KindRetryable, "EPIPE"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return KindRetryable, "ECONNRESET"
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindRetryable, "ETIMEDOUT"
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindFatal, "ECONNREFUSED"
	default:
		return KindFatal, ""
	}
}

// GatewayError 所有候选模型失败或遇到不可重试错误
type GatewayError struct {
	Meta Meta
	Last error
}

// Error 实现 error
func (e *GatewayError) Error() string {
	return fmt.Sprintf("model gateway failed after %d attempt(s): %v", e.Meta.TotalAttempts, e.Last)
}

// Unwrap 返回最后一次失败
func (e *GatewayError) Unwrap() error {
	return e.Last
}

// ErrorCode 指标错误码：HTTP 状态码 > 传输错误码 > 错误类型名
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.StatusCode != 0 {
			return strconv.Itoa(pe.StatusCode)
		}
		if pe.Code != "" {
			return pe.Code
		}
		if pe.Err != nil {
			return errorName(pe.Err)
		}
	}

	return errorName(err)
}

// errorName 错误类型名，如 *net.OpError -> OpError
// fmt.Errorf 的包装层跳过；errors.New 的错误没有类型名
func errorName(err error) string {
	for fmt.Sprintf("%T", err) == "*fmt.wrapError" {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}

	name := fmt.Sprintf("%T", err)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			name = name[i+1:]
			break
		}
	}
	if name == "" || name == "errorString" {
		return ""
	}
	return name
}
