package singleton

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestPreflight_PortAvailable(t *testing.T) {
	addr := freeAddr(t)
	require.NoError(t, Preflight(addr))

	// 检查之后端口已释放
	l, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	l.Close()
}

func TestPreflight_HealthyInstance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := Preflight(srv.Listener.Addr().String())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestPreflight_UnhealthyOccupant(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	err = Preflight(l.Addr().String())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAlreadyRunning))
	assert.Contains(t, err.Error(), "does not answer /health")
}

func TestIsAddrInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	_, err = net.Listen("tcp", l.Addr().String())
	require.Error(t, err)
	assert.True(t, isAddrInUse(err))

	assert.False(t, isAddrInUse(errors.New("some other error")))
	assert.False(t, isAddrInUse(nil))
}

func TestProbeHost(t *testing.T) {
	assert.Equal(t, "127.0.0.1:5000", probeHost(":5000"))
	assert.Equal(t, "127.0.0.1:5000", probeHost("0.0.0.0:5000"))
	assert.Equal(t, "10.1.2.3:80", probeHost("10.1.2.3:80"))
	assert.Equal(t, "garbage", probeHost("garbage"))
}
