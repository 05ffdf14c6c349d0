package authz

import "fmt"

// RoleSeed 预置角色：继承的角色与额外授予的策略
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

const readonlyAuditor = "readonly_auditor"

// BuiltinRoleSeeds 店铺后台的预置角色，全部继承只读审计员
func BuiltinRoleSeeds() []RoleSeed {
	grant := func(method string, objects ...string) []Policy {
		policies := make([]Policy, 0, len(objects))
		for _, object := range objects {
			policies = append(policies, Policy{Object: object, Action: method})
		}
		return policies
	}
	return []RoleSeed{
		{Role: readonlyAuditor, Policies: grant("GET", "/admin/*")},
		{Role: "catalog", Inherits: []string{readonlyAuditor}, Policies: grant("*", "/admin/products", "/admin/products/:id", "/admin/products/:id/active")},
		{Role: "support", Inherits: []string{readonlyAuditor}, Policies: grant("PATCH", "/admin/orders/:id")},
		{Role: "fulfillment", Inherits: []string{readonlyAuditor}, Policies: grant("POST", "/admin/orders/:id/transition")},
		{Role: "finance", Inherits: []string{readonlyAuditor}, Policies: grant("POST", "/admin/orders/:id/transition", "/admin/payments/confirm")},
	}
}

func isBuiltinRole(name string) bool {
	for _, seed := range BuiltinRoleSeeds() {
		if rolePrefix+seed.Role == name {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 写入预置角色与策略，重复执行无副作用
func (s *Service) BootstrapBuiltinRoles() error {
	e, err := s.ready()
	if err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			if _, err := e.AddNamedGroupingPolicy("g", role, rolePrefix+parent); err != nil {
				return fmt.Errorf("link %s to %s: %w", role, parent, err)
			}
		}
		for _, policy := range seed.Policies {
			if _, err := e.AddPolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("seed policy for %s: %w", role, err)
			}
		}
	}
	return nil
}
