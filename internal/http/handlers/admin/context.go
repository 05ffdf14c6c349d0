package admin

import (
	"strings"
	"time"

	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 后台接口，仅挂在 JWT 与 RBAC 中间件之后
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, handlershared.ContextKeyAdminID, "error.admin_id_invalid", "error.admin_id_type_invalid")
}

// currentAdminID 未通过鉴权时返回 0
func currentAdminID(c *gin.Context) uint {
	value, exists := c.Get(handlershared.ContextKeyAdminID)
	if !exists {
		return 0
	}
	switch adminID := value.(type) {
	case uint:
		return adminID
	case int:
		if adminID > 0 {
			return uint(adminID)
		}
	}
	return 0
}

func currentUsername(c *gin.Context) string {
	value, exists := c.Get(handlershared.ContextKeyAdminName)
	if !exists {
		return ""
	}
	if username, ok := value.(string); ok {
		return strings.TrimSpace(username)
	}
	return ""
}

func currentIsSuper(c *gin.Context) bool {
	value, exists := c.Get(handlershared.ContextKeyAdminIsSuper)
	if !exists {
		return false
	}
	flag, _ := value.(bool)
	return flag
}

func parseIDParam(c *gin.Context, name, invalidKey string) (uint, bool) {
	id, ok := handlershared.ParseUintParam(c, name)
	if !ok {
		respondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return id, true
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	parsed, err := handlershared.ParseTimeNullable(strings.TrimSpace(c.Query(key)))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return nil, false
	}
	return parsed, true
}
