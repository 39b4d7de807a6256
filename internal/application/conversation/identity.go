// Package conversation 负责调用方身份解析与对话历史
package conversation

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wacana/backend/internal/domain/chat"
	"github.com/wacana/backend/internal/infrastructure/auth"
	"github.com/wacana/backend/internal/infrastructure/config"
	"github.com/wacana/backend/internal/infrastructure/log"
)

// Cookie 名称
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	SessionCookie      = "chatSessionId"
	GuestCookie        = "chatGuestId"
)

// userSessionMaxAge 已认证用户的会话 cookie 有效期
const userSessionMaxAge = 30 * 24 * time.Hour

// TokenVerifier 令牌校验
type TokenVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
	VerifyRefresh(token string) (*auth.Claims, error)
}

// IdentityRequest 身份解析输入
type IdentityRequest struct {
	// Cookies 请求携带的 cookie（名称 -> 值）
	Cookies        map[string]string
	QuerySessionID string
	BodySessionID  string
}

// Identity 身份解析结果
type Identity struct {
	Owner chat.Owner
	// SetCookies 需要写回客户端的 cookie
	SetCookies []*http.Cookie
	// MergeGuestID 已认证用户仍携带的访客 ID，需要合并其历史
	MergeGuestID string
}

// IdentityResolver 从 cookie / 令牌 / 参数推导对话所有者
type IdentityResolver struct {
	verifier TokenVerifier
	secure   bool
	newID    func() string
	logger   *slog.Logger
}

// NewIdentityResolver 创建身份解析器
func NewIdentityResolver(verifier TokenVerifier, server *config.ServerConfig) *IdentityResolver {
	return &IdentityResolver{
		verifier: verifier,
		secure:   server != nil && strings.EqualFold(server.Mode, "production"),
		newID:    uuid.NewString,
		logger:   log.NewModuleLogger("conversation", "identity"),
	}
}

// Resolve 解析所有者
// 会话 ID 优先级：查询参数 > 请求体 > cookie > 新生成
func (r *IdentityResolver) Resolve(req IdentityRequest) *Identity {
	sessionID := firstNonBlank(req.QuerySessionID, req.BodySessionID, req.Cookies[SessionCookie])
	if sessionID == "" {
		sessionID = r.newID()
	}

	id := &Identity{}
	if userID := r.tokenUserID(req.Cookies); userID != "" {
		id.Owner = chat.Owner{Type: chat.OwnerUser, ID: userID, SessionID: sessionID}
		id.SetCookies = append(id.SetCookies, r.cookie(SessionCookie, sessionID, int(userSessionMaxAge.Seconds())))

		if guestID := strings.TrimSpace(req.Cookies[GuestCookie]); guestID != "" {
			id.MergeGuestID = guestID
			id.SetCookies = append(id.SetCookies, r.cookie(GuestCookie, "", -1))
		}
		return id
	}

	guestID := strings.TrimSpace(req.Cookies[GuestCookie])
	if guestID == "" {
		guestID = r.newID()
	}
	id.Owner = chat.Owner{Type: chat.OwnerGuest, ID: guestID, SessionID: sessionID}
	// 访客 cookie 均为会话级
	id.SetCookies = append(id.SetCookies,
		r.cookie(SessionCookie, sessionID, 0),
		r.cookie(GuestCookie, guestID, 0),
	)
	return id
}

// tokenUserID 访问令牌优先，失败后尝试刷新令牌；都失败时返回空
func (r *IdentityResolver) tokenUserID(cookies map[string]string) string {
	if r.verifier == nil {
		return ""
	}

	if token := cookies[AccessTokenCookie]; token != "" {
		claims, err := r.verifier.VerifyAccess(token)
		if err == nil {
			return claims.UserID()
		}
		if errors.Is(err, auth.ErrTokenExpired) {
			r.logger.Debug("Access token expired, trying refresh token")
		} else {
			r.logger.Warn("Access token not valid", "error", err)
		}
	}

	if token := cookies[RefreshTokenCookie]; token != "" {
		claims, err := r.verifier.VerifyRefresh(token)
		if err == nil {
			return claims.UserID()
		}
		r.logger.Warn("Refresh token failed to validate", "error", err)
	}
	return ""
}

// cookie maxAge: 0 会话级，<0 立即过期
func (r *IdentityResolver) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
