package admin

import (
	"strings"

	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateUserStatusRequest 修改用户状态请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetAdminUsers 用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	createdFrom, ok := parseTimeQuery(c, "created_from")
	if !ok {
		return
	}
	createdTo, ok := parseTimeQuery(c, "created_to")
	if !ok {
		return
	}

	users, total, err := h.UserAdminService.List(c.Request.Context(), repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// GetAdminUser 用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "error.user_id_invalid")
	if !ok {
		return
	}
	user, err := h.UserAdminService.Get(c.Request.Context(), userID)
	if err != nil {
		respondWithMappedError(c, err, userAdminErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, user)
}

// UpdateAdminUserStatus 启用/禁用用户
func (h *Handler) UpdateAdminUserStatus(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "error.user_id_invalid")
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAdminService.SetStatus(c.Request.Context(), userID, req.Status)
	if err != nil {
		respondWithMappedError(c, err, userAdminErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "user_status_update",
		ResourceType: models.AuditResourceUser,
		ResourceID:   service.AuditResourceID(userID),
		Detail:       models.JSON{"status": user.Status},
	})
	requestLog(c).Infow("admin_user_status_updated", "admin_id", currentAdminID(c), "user_id", userID, "status", user.Status)
	response.Success(c, user)
}
