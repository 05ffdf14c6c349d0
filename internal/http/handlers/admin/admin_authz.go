package admin

import (
	"net/url"
	"strings"

	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

type authzRolePayload struct {
	Role string `json:"role" binding:"required"`
}

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, roles)
}

// CreateAuthzRole 创建角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req authzRolePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeBadRequest, "error.role_invalid")
		return
	}

	h.recordAudit(c, service.AuditEntry{
		Action:       "role_create",
		ResourceType: models.AuditResourceRole,
		ResourceID:   role,
	})
	requestLog(c).Infow("admin_authz_role_created", "operator_admin_id", currentAdminID(c), "role", role)
	response.Success(c, gin.H{"role": role})
}

// DeleteAuthzRole 删除角色
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		return
	}

	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeBadRequest, "error.role_invalid")
		return
	}

	h.recordAudit(c, service.AuditEntry{
		Action:       "role_delete",
		ResourceType: models.AuditResourceRole,
		ResourceID:   role,
	})
	requestLog(c).Infow("admin_authz_role_deleted", "operator_admin_id", currentAdminID(c), "role", role)
	response.Success(c, nil)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		return
	}

	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeBadRequest, "error.role_invalid")
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	h.changeAuthzPolicy(c, "policy_grant", h.AuthzService.GrantRolePolicy)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	h.changeAuthzPolicy(c, "policy_revoke", h.AuthzService.RevokeRolePolicy)
}

func (h *Handler) changeAuthzPolicy(c *gin.Context, action string, apply func(role, object, act string) error) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := apply(req.Role, req.Object, req.Action); err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeBadRequest, "error.bad_request")
		return
	}

	method := strings.ToUpper(strings.TrimSpace(req.Action))
	h.recordAudit(c, service.AuditEntry{
		Action:       action,
		ResourceType: models.AuditResourceRole,
		ResourceID:   strings.TrimSpace(req.Role),
		Detail:       models.JSON{"object": req.Object, "method": method},
	})
	requestLog(c).Infow("admin_authz_policy_changed",
		"operator_admin_id", currentAdminID(c),
		"change", action,
		"role", req.Role,
		"object", req.Object,
		"action", method,
	)
	response.Success(c, nil)
}

// GetAuthzAdminRoles 获取管理员角色
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id", "error.admin_id_invalid")
	if !ok {
		return
	}
	if _, err := h.AuthService.GetAdmin(c.Request.Context(), adminID); err != nil {
		respondWithMappedError(c, err, adminAuthErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, roles)
}

// SetAuthzAdminRoles 覆盖管理员角色
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := parseIDParam(c, "id", "error.admin_id_invalid")
	if !ok {
		return
	}
	admin, err := h.AuthService.GetAdmin(c.Request.Context(), adminID)
	if err != nil {
		respondWithMappedError(c, err, adminAuthErrorRules, response.CodeInternal, "error.save_failed")
		return
	}

	var req authzSetAdminRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondWithMappedError(c, err, authzErrorRules, response.CodeBadRequest, "error.role_invalid")
		return
	}

	h.recordAudit(c, service.AuditEntry{
		Action:       "admin_roles_update",
		ResourceType: models.AuditResourceAdmin,
		ResourceID:   service.AuditResourceID(adminID),
		Detail:       models.JSON{"username": admin.Username, "roles": req.Roles},
	})
	requestLog(c).Infow("admin_authz_admin_roles_updated",
		"operator_admin_id", currentAdminID(c),
		"target_admin_id", adminID,
		"roles", req.Roles,
	)
	response.Success(c, nil)
}

func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
