package public

import (
	"strings"

	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/provider"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 店面接口，会话可选，身份由会话中间件注入
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, handlershared.ContextKeyUserID, "error.user_id_invalid", "error.user_id_type_invalid")
}

// currentUserID 未登录时返回 0
func currentUserID(c *gin.Context) uint {
	if identity := handlershared.CurrentIdentity(c); identity != nil {
		return identity.UserID
	}
	return 0
}

// resolveCartOwner 登录用户使用用户购物车，游客使用 X-Cart-Key 指定的购物车
func resolveCartOwner(c *gin.Context) (string, bool) {
	if userID := currentUserID(c); userID != 0 {
		return service.UserCartOwner(userID), true
	}
	owner, ok := service.GuestCartOwner(c.GetHeader(handlershared.CartKeyHeader))
	if !ok {
		respondError(c, response.CodeBadRequest, "error.cart_key_invalid", nil)
		return "", false
	}
	return owner, true
}

func normalizeOrderNo(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// parseIDParam 解析路径中的正整数 ID，失败时已写出响应
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, ok := handlershared.ParseUintParam(c, name)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return id, true
}
