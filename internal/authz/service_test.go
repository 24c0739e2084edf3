package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceAdminWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/rewards/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(1, []string{"ops"}); err != nil {
		t.Fatalf("set admin roles failed: %v", err)
	}

	allow, err := svc.EnforceAdmin(1, "/api/v1/admin/rewards/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceAdmin(1, "/api/v1/admin/rewards/42", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestSetAdminRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/accounts", "GET"); err != nil {
		t.Fatalf("grant ops policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("finance", "/admin/earnings", "GET"); err != nil {
		t.Fatalf("grant finance policy failed: %v", err)
	}

	if err := svc.SetAdminRoles(2, []string{"ops"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:ops" {
		t.Fatalf("roles want [role:ops], got=%v", roles)
	}

	if err := svc.SetAdminRoles(2, []string{"finance"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err = svc.GetAdminRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:finance" {
		t.Fatalf("roles want [role:finance], got=%v", roles)
	}

	allow, err := svc.EnforceAdmin(2, "/admin/accounts", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role access to be revoked")
	}
	allow, err = svc.EnforceAdmin(2, "/admin/earnings", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected new role access to be granted")
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("support", "/admin/users", "GET"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(3, []string{"support"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}

	if err := svc.RevokeRolePolicy("support", "/admin/users", "GET"); err != nil {
		t.Fatalf("revoke policy failed: %v", err)
	}
	allow, err := svc.EnforceAdmin(3, "/admin/users", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("expected access revoked")
	}

	policies, err := svc.GetRolePolicies("support")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != 0 {
		t.Fatalf("expected no policies, got %v", policies)
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	want := map[string]bool{}
	for _, seed := range BuiltinRoleSeeds() {
		want["role:"+seed.Role] = false
	}
	for _, role := range roles {
		if _, ok := want[role]; ok {
			want[role] = true
		}
	}
	for role, seen := range want {
		if !seen {
			t.Fatalf("expected builtin role %s, got %v", role, roles)
		}
	}

	// 预置审计角色只读
	if err := svc.SetAdminRoles(9, []string{"readonly_auditor"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	allow, err := svc.EnforceAdmin(9, "/api/v1/admin/accounts/1", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected auditor read access")
	}
	allow, err = svc.EnforceAdmin(9, "/api/v1/admin/accounts/1/adjust", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("expected auditor write access denied")
	}

	// 重复初始化幂等
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("repeat bootstrap failed: %v", err)
	}
}
