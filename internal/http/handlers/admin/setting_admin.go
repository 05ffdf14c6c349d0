package admin

import (
	"strings"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSettings 全部设置
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.SettingService.List(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, settings)
}

// GetSetting 按键获取设置，未配置时返回空对象
func (h *Handler) GetSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	value, err := h.SettingService.GetByKey(c.Request.Context(), key)
	if err != nil {
		respondWithMappedError(c, err, settingErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	if value == nil {
		value = map[string]interface{}{}
	}
	response.Success(c, value)
}

// UpdateSetting 覆盖写入设置
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	value, err := h.SettingService.Update(c.Request.Context(), key, req)
	if err != nil {
		respondWithMappedError(c, err, settingErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "setting_update",
		ResourceType: models.AuditResourceSetting,
		ResourceID:   key,
	})
	requestLog(c).Infow("admin_setting_updated", "admin_id", currentAdminID(c), "key", key)
	response.Success(c, value)
}
