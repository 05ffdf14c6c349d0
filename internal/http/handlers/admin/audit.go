package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 后台审计记录列表
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	adminID, ok := parseOptionalUintQuery(c, "admin_id")
	if !ok {
		return
	}
	createdFrom, ok := parseTimeQuery(c, "created_from")
	if !ok {
		return
	}
	createdTo, ok := parseTimeQuery(c, "created_to")
	if !ok {
		return
	}

	entries, total, err := h.AuditService.List(c.Request.Context(), repository.AdminAuditLogFilter{
		Page:         page,
		PageSize:     pageSize,
		AdminID:      adminID,
		Action:       strings.TrimSpace(c.Query("action")),
		ResourceType: strings.TrimSpace(c.Query("resource_type")),
		ResourceID:   strings.TrimSpace(c.Query("resource_id")),
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, entries, response.NewPagination(page, pageSize, total))
}

// recordAudit 补全操作人与请求 ID 后写入审计记录
func (h *Handler) recordAudit(c *gin.Context, entry service.AuditEntry) {
	if h.AuditService == nil {
		return
	}
	entry.AdminID = currentAdminID(c)
	entry.AdminUsername = currentUsername(c)
	entry.RequestID = handlershared.CurrentRequestID(c)
	h.AuditService.Record(c.Request.Context(), entry)
}

func parseOptionalUintQuery(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(value), true
}
