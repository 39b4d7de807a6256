// Package singleton 启动前检查监听端口，避免两个实例共用同一个数据库文件
package singleton

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// HealthCheckTimeout 探测已有实例的超时时间
const HealthCheckTimeout = 2 * time.Second

// wsaeaddrinuse Windows 上的 WSAEADDRINUSE
const wsaeaddrinuse = syscall.Errno(10048)

// ErrAlreadyRunning 端口上已有健康的实例
var ErrAlreadyRunning = errors.New("another instance is already serving on this port")

// Preflight 检查端口是否可用
// 端口空闲返回 nil；被健康实例占用返回 ErrAlreadyRunning；其他占用或监听失败返回错误
func Preflight(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err == nil {
		return listener.Close()
	}

	if !isAddrInUse(err) {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if isInstanceRunning(addr) {
		return ErrAlreadyRunning
	}
	return fmt.Errorf("port %s is in use by a process that does not answer /health", addr)
}

// isAddrInUse 地址已被占用
func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE) || errors.Is(err, wsaeaddrinuse)
}

// isInstanceRunning 探测 /health
func isInstanceRunning(addr string) bool {
	client := &http.Client{Timeout: HealthCheckTimeout}

	resp, err := client.Get(fmt.Sprintf("http://%s/health", probeHost(addr)))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// probeHost ":5000" 与 "0.0.0.0:5000" 都改为回环地址
func probeHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
