package admin

import (
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

type authzCreateAdminPayload struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required"`
	IsSuper  bool     `json:"is_super"`
	Roles    []string `json:"roles"`
}

// ListAuthzAdmins 管理员列表（含角色）
func (h *Handler) ListAuthzAdmins(c *gin.Context) {
	admins, err := h.AuthService.ListAdmins(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	items := make([]gin.H, 0, len(admins))
	for _, admin := range admins {
		roles, roleErr := h.AuthzService.GetAdminRoles(admin.ID)
		if roleErr != nil {
			respondWithMappedError(c, roleErr, authzErrorRules, response.CodeInternal, "error.fetch_failed")
			return
		}
		items = append(items, gin.H{
			"id":            admin.ID,
			"username":      admin.Username,
			"is_super":      admin.IsSuper,
			"last_login_at": admin.LastLoginAt,
			"created_at":    admin.CreatedAt,
			"roles":         roles,
		})
	}
	response.Success(c, items)
}

// CreateAuthzAdmin 创建管理员，仅超级管理员可创建超级管理员
func (h *Handler) CreateAuthzAdmin(c *gin.Context) {
	var req authzCreateAdminPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.IsSuper && !currentIsSuper(c) {
		respondError(c, response.CodeForbidden, "error.forbidden", nil)
		return
	}

	admin, err := h.AuthService.CreateAdmin(c.Request.Context(), req.Username, req.Password, req.IsSuper)
	if err != nil {
		respondWithMappedError(c, err, adminAuthErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	if len(req.Roles) > 0 {
		if err := h.AuthzService.SetAdminRoles(admin.ID, req.Roles); err != nil {
			respondWithMappedError(c, err, authzErrorRules, response.CodeBadRequest, "error.role_invalid")
			return
		}
	}

	h.recordAudit(c, service.AuditEntry{
		Action:       "admin_create",
		ResourceType: models.AuditResourceAdmin,
		ResourceID:   service.AuditResourceID(admin.ID),
		Detail: models.JSON{
			"username": admin.Username,
			"is_super": admin.IsSuper,
			"roles":    req.Roles,
		},
	})
	requestLog(c).Infow("admin_authz_admin_created",
		"operator_admin_id", currentAdminID(c),
		"target_admin_id", admin.ID,
		"is_super", admin.IsSuper,
	)
	response.Success(c, admin)
}
