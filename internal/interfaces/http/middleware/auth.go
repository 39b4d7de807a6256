package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wacana/backend/internal/infrastructure/auth"
	"github.com/wacana/backend/internal/infrastructure/log"
	"github.com/wacana/backend/internal/interfaces/http/response"
)

// 鉴权失败提示
const (
	MsgAccessTokenRequired = "Access token required"
	MsgSessionExpired      = "Session expired. Please login again"
	MsgInvalidToken        = "Invalid token"
	MsgForbidden           = "You do not have permission to access this resource"
)

// ClaimsKey gin 上下文中的令牌载荷
const ClaimsKey = "auth.claims"

// DashboardRoles 可查看运营统计的角色
var DashboardRoles = []string{"admin", "hmp"}

// AccessVerifier 访问令牌校验
type AccessVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// RequireRoles 要求有效访问令牌且角色在 roles 内
// 令牌取自 accessToken cookie，其次 Authorization: Bearer
func RequireRoles(verifier AccessVerifier, roles ...string) gin.HandlerFunc {
	logger := log.NewModuleLogger("http", "auth")
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, MsgAccessTokenRequired)
			return
		}

		claims, err := verifier.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				response.Abort(c, http.StatusUnauthorized, MsgSessionExpired)
				return
			}
			logger.Warn("Access token rejected",
				"path", c.FullPath(),
				"error", err,
			)
			response.Abort(c, http.StatusUnauthorized, MsgInvalidToken)
			return
		}

		if !slices.Contains(roles, claims.Role) {
			logger.Warn("Role not permitted",
				"path", c.FullPath(),
				"user_id", claims.UserID(),
				"role", claims.Role,
			)
			response.Abort(c, http.StatusForbidden, MsgForbidden)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if v, err := c.Cookie("accessToken"); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
