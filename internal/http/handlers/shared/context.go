package shared

import (
	"strings"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// 请求上下文键
const (
	ContextKeyRequestID    = response.RequestIDKey
	ContextKeyUserID       = "user_id"
	ContextKeyUserEmail    = "user_email"
	ContextKeyIdentity     = "session_identity"
	ContextKeySessionToken = "session_token"
	ContextKeyAdminID      = "admin_id"
	ContextKeyAdminName    = "username"
	ContextKeyAdminIsSuper = "admin_is_super"
)

// CartKeyHeader 游客购物车标识请求头
const CartKeyHeader = "X-Cart-Key"

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// CurrentIdentity 读取会话中间件写入的用户身份，未登录时返回 nil。
func CurrentIdentity(c *gin.Context) *service.Identity {
	value, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil
	}
	identity, _ := value.(*service.Identity)
	return identity
}

// CurrentSessionToken 读取当前请求携带的会话 token。
func CurrentSessionToken(c *gin.Context) string {
	value, exists := c.Get(ContextKeySessionToken)
	if !exists {
		return ""
	}
	token, _ := value.(string)
	return token
}

// CurrentRequestID 读取请求 ID。
func CurrentRequestID(c *gin.Context) string {
	value, exists := c.Get(ContextKeyRequestID)
	if !exists {
		return ""
	}
	requestID, _ := value.(string)
	return strings.TrimSpace(requestID)
}

// ClientMeta 提取创建会话所需的客户端信息。
func ClientMeta(c *gin.Context) service.ClientMeta {
	return service.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}
}
