package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wacana/backend/internal/domain/metric"
	"github.com/wacana/backend/internal/infrastructure/auth"
	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/interfaces/http/middleware"
)

type stubSummary struct {
	from, to time.Time
	err      error
}

func (s *stubSummary) Summary(ctx context.Context, from, to time.Time) (*metric.Summary, error) {
	s.from, s.to = from, to
	if s.err != nil {
		return nil, s.err
	}
	return metric.Summarize(metric.Totals{Total: 4, Success: 3, Failed: 1, DurationMs: 400}), nil
}

func TestMetricsHandler_Summary(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		query          string
		err            error
		expectedStatus int
	}{
		{name: "默认区间", query: "", expectedStatus: http.StatusOK},
		{name: "指定区间", query: "?from=2026-01-01T00:00:00Z&to=2026-01-31T00:00:00Z", expectedStatus: http.StatusOK},
		{name: "无效的 from", query: "?from=yesterday", expectedStatus: http.StatusBadRequest},
		{name: "from 晚于 to", query: "?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z", expectedStatus: http.StatusBadRequest},
		{name: "仓储失败", query: "", err: errors.New("db locked"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubSummary{err: tt.err}
			router := gin.New()
			router.GET("/metrics/summary", NewMetricsHandler(s).Summary)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics/summary"+tt.query, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				body := decodeBody(t, w)
				assert.Equal(t, "OK", body["status"])
				data := body["data"].(map[string]any)
				assert.Equal(t, float64(4), data["totalRequests"])
				assert.Equal(t, 75.0, data["successRate"])
			}
		})
	}
}

func TestMetricsHandler_PassesParsedRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &stubSummary{}
	router := gin.New()
	router.GET("/metrics/summary", NewMetricsHandler(s).Summary)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics/summary?from=2026-01-01T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), s.from.UTC())
	assert.True(t, s.to.IsZero())
}

func signRoleToken(t *testing.T, secret, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := &auth.Claims{
		ID:   "u-" + role,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestMetricsHandler_SummaryRoleGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "dashboard-secret"
	verifier := auth.NewTokenVerifier(&config.AuthConfig{JWTSecret: secret})

	tests := []struct {
		name           string
		cookie         string
		bearer         string
		expectedStatus int
		expectedMsg    string
	}{
		{name: "无令牌", expectedStatus: http.StatusUnauthorized, expectedMsg: middleware.MsgAccessTokenRequired},
		{name: "令牌过期", cookie: signRoleToken(t, secret, "admin", -time.Minute), expectedStatus: http.StatusUnauthorized, expectedMsg: middleware.MsgSessionExpired},
		{name: "签名错误", cookie: signRoleToken(t, "other", "admin", time.Minute), expectedStatus: http.StatusUnauthorized, expectedMsg: middleware.MsgInvalidToken},
		{name: "学生角色", cookie: signRoleToken(t, secret, "student", time.Minute), expectedStatus: http.StatusForbidden, expectedMsg: middleware.MsgForbidden},
		{name: "管理员 cookie", cookie: signRoleToken(t, secret, "admin", time.Minute), expectedStatus: http.StatusOK},
		{name: "hmp Bearer", bearer: signRoleToken(t, secret, "hmp", time.Minute), expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubSummary{}
			router := gin.New()
			router.GET("/metrics/summary", middleware.RequireRoles(verifier, middleware.DashboardRoles...), NewMetricsHandler(s).Summary)

			req := httptest.NewRequest(http.MethodGet, "/metrics/summary", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "accessToken", Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody(t, w)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "OK", body["status"])
				return
			}
			assert.Equal(t, "FAILED", body["status"])
			assert.Equal(t, tt.expectedMsg, body["message"])
		})
	}
}
