package authz

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	apiV1Prefix     = "/api/v1"
	adminPathPrefix = "/admin"
	adminSubjectFmt = "admin:%d"
	rolePrefix      = "role:"
	roleAnchor      = "role:__anchor__"
)

var policyActions = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	"*",
}

// SubjectForAdmin 管理员在策略中的主体
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(adminSubjectFmt, adminID)
}

// NormalizeRole 去空白、空格转下划线并补齐 role: 前缀
func NormalizeRole(role string) (string, error) {
	name := strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(role), " ", "_"), rolePrefix)
	if name == "" {
		return "", ErrRoleRequired
	}
	if rolePrefix+name == roleAnchor {
		return "", ErrReservedRole
	}
	return rolePrefix + name, nil
}

// NormalizeObject 统一为不带 /api/v1 前缀、以 / 开头的路径
func NormalizeObject(object string) string {
	path := strings.TrimSpace(object)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimPrefix(path, apiV1Prefix)
	if path == "" {
		return "/"
	}
	return path
}

// NormalizeAction 统一为大写
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}

func adminObject(object string) (string, error) {
	path := NormalizeObject(object)
	if path != adminPathPrefix && !strings.HasPrefix(path, adminPathPrefix+"/") {
		return "", ErrObjectInvalid
	}
	return path, nil
}

func httpAction(action string) (string, error) {
	act := NormalizeAction(action)
	for _, allowed := range policyActions {
		if act == allowed {
			return act, nil
		}
	}
	return "", ErrActionRequired
}

func isRoleName(value string) bool {
	return strings.HasPrefix(value, rolePrefix) && value != roleAnchor
}
