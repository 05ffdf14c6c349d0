package authz

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const casbinTableName = "casbin_rule"

// 主体可以是管理员或角色，角色之间通过 g 继承；对象用 keyMatch2 匹配路由模板
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

var (
	// ErrUnavailable 授权服务未初始化
	ErrUnavailable = errors.New("authz service unavailable")
	// ErrRoleRequired 角色名为空
	ErrRoleRequired = errors.New("role is required")
	// ErrReservedRole 预置角色不可删除
	ErrReservedRole = errors.New("reserved role is not allowed")
	// ErrActionRequired 动作不是 HTTP 方法或 *
	ErrActionRequired = errors.New("action must be an http method or *")
	// ErrObjectInvalid 策略对象不在 /admin 下
	ErrObjectInvalid = errors.New("policy object must be an admin path")
	// ErrAdminRequired 管理员 ID 为空
	ErrAdminRequired = errors.New("admin id is required")
)

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service 后台 RBAC，策略持久化在 casbin_rule 表
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务并加载已有策略
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() (*casbin.SyncedEnforcer, error) {
	if s == nil || s.enforcer == nil {
		return nil, ErrUnavailable
	}
	return s.enforcer, nil
}

// EnforceAdmin 判断管理员能否以 method 访问 path，path 可带 /api/v1 前缀
func (s *Service) EnforceAdmin(adminID uint, path, method string) (bool, error) {
	e, err := s.ready()
	if err != nil {
		return false, err
	}
	return e.Enforce(SubjectForAdmin(adminID), NormalizeObject(path), NormalizeAction(method))
}

// EnsureRole 确保角色存在，返回带前缀的角色名
func (s *Service) EnsureRole(role string) (string, error) {
	name, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	e, err := s.ready()
	if err != nil {
		return "", err
	}
	// 无策略的角色靠挂在锚点上保持可见
	if _, err := e.AddNamedGroupingPolicy("g", name, roleAnchor); err != nil {
		return "", fmt.Errorf("create role %s: %w", name, err)
	}
	return name, nil
}

// ListRoles 列出全部角色，按名称排序
func (s *Service) ListRoles() ([]string, error) {
	e, err := s.ready()
	if err != nil {
		return nil, err
	}
	links, err := e.GetFilteredNamedGroupingPolicy("g", 0)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	var roles []string
	for _, link := range links {
		for _, name := range link {
			if isRoleName(name) && !slices.Contains(roles, name) {
				roles = append(roles, name)
			}
		}
	}
	slices.Sort(roles)
	return roles, nil
}

// DeleteRole 删除自定义角色及其策略、继承与成员关系
func (s *Service) DeleteRole(role string) error {
	name, err := NormalizeRole(role)
	if err != nil {
		return err
	}
	if isBuiltinRole(name) {
		return ErrReservedRole
	}
	e, err := s.ready()
	if err != nil {
		return err
	}
	if _, err := e.RemoveFilteredPolicy(0, name); err != nil {
		return fmt.Errorf("remove policies of %s: %w", name, err)
	}
	for _, field := range []int{0, 1} {
		if _, err := e.RemoveFilteredNamedGroupingPolicy("g", field, name); err != nil {
			return fmt.Errorf("remove links of %s: %w", name, err)
		}
	}
	return nil
}

// GrantRolePolicy 为角色授予 object + action，角色不存在时创建
func (s *Service) GrantRolePolicy(role, object, action string) error {
	name, obj, act, err := s.policyArgs(role, object, action)
	if err != nil {
		return err
	}
	if _, err := s.EnsureRole(name); err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(name, obj, act); err != nil {
		return fmt.Errorf("grant %s %s to %s: %w", act, obj, name, err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略，策略不存在时无操作
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	name, obj, act, err := s.policyArgs(role, object, action)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(name, obj, act); err != nil {
		return fmt.Errorf("revoke %s %s from %s: %w", act, obj, name, err)
	}
	return nil
}

func (s *Service) policyArgs(role, object, action string) (string, string, string, error) {
	if _, err := s.ready(); err != nil {
		return "", "", "", err
	}
	name, err := NormalizeRole(role)
	if err != nil {
		return "", "", "", err
	}
	obj, err := adminObject(object)
	if err != nil {
		return "", "", "", err
	}
	act, err := httpAction(action)
	if err != nil {
		return "", "", "", err
	}
	return name, obj, act, nil
}

// GetRolePolicies 角色直接持有的策略，不含继承
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	name, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	return s.policiesOf(name)
}

func (s *Service) policiesOf(subject string) ([]Policy, error) {
	e, err := s.ready()
	if err != nil {
		return nil, err
	}
	rules, err := e.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("get policies of %s: %w", subject, err)
	}
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) >= 3 {
			policies = append(policies, Policy{Subject: rule[0], Object: rule[1], Action: rule[2]})
		}
	}
	return policies, nil
}

// SetAdminRoles 用 roles 覆盖管理员的角色
func (s *Service) SetAdminRoles(adminID uint, roles []string) error {
	if adminID == 0 {
		return ErrAdminRequired
	}
	e, err := s.ready()
	if err != nil {
		return err
	}
	subject := SubjectForAdmin(adminID)
	if _, err := e.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear roles of %s: %w", subject, err)
	}
	for _, role := range roles {
		name, err := s.EnsureRole(role)
		if err != nil {
			return err
		}
		if _, err := e.AddNamedGroupingPolicy("g", subject, name); err != nil {
			return fmt.Errorf("assign %s to %s: %w", name, subject, err)
		}
	}
	return nil
}

// GetAdminRoles 管理员直接拥有的角色，按名称排序
func (s *Service) GetAdminRoles(adminID uint) ([]string, error) {
	if adminID == 0 {
		return nil, ErrAdminRequired
	}
	e, err := s.ready()
	if err != nil {
		return nil, err
	}
	names, err := e.GetRolesForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("get admin roles: %w", err)
	}
	roles := slices.DeleteFunc(names, func(name string) bool { return !isRoleName(name) })
	slices.Sort(roles)
	return roles, nil
}

// GetAdminPolicies 管理员经由直连与角色获得的策略，含角色继承，去重后排序
func (s *Service) GetAdminPolicies(adminID uint) ([]Policy, error) {
	if adminID == 0 {
		return nil, ErrAdminRequired
	}
	e, err := s.ready()
	if err != nil {
		return nil, err
	}
	subject := SubjectForAdmin(adminID)
	implicit, err := e.GetImplicitRolesForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("get implicit roles: %w", err)
	}
	var result []Policy
	for _, sub := range append([]string{subject}, implicit...) {
		policies, err := s.policiesOf(sub)
		if err != nil {
			return nil, err
		}
		for _, p := range policies {
			if !slices.Contains(result, p) {
				result = append(result, p)
			}
		}
	}
	slices.SortFunc(result, func(a, b Policy) int {
		if a.Object != b.Object {
			return cmp.Compare(a.Object, b.Object)
		}
		if a.Action != b.Action {
			return cmp.Compare(a.Action, b.Action)
		}
		return cmp.Compare(a.Subject, b.Subject)
	})
	return result, nil
}
