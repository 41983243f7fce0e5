package db

import "testing"

func TestRoleHasPermission(t *testing.T) {
	allPerms := []Permission{
		PermissionFollow,
		PermissionComment,
		PermissionWriteArticles,
		PermissionModerateComments,
		PermissionAdministrator,
	}

	tests := []struct {
		name    string
		role    *Role
		granted []Permission
	}{
		{
			name:    "writer mask",
			role:    &Role{Permissions: 0x07},
			granted: []Permission{PermissionFollow, PermissionComment, PermissionWriteArticles},
		},
		{
			name:    "moderator mask",
			role:    &Role{Permissions: 0x0f},
			granted: []Permission{PermissionFollow, PermissionComment, PermissionWriteArticles, PermissionModerateComments},
		},
		{
			name:    "administrator mask",
			role:    &Role{Permissions: PermissionAll},
			granted: allPerms,
		},
		{
			name: "empty mask",
			role: &Role{Permissions: 0},
		},
		{
			name: "nil role",
			role: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			granted := make(map[Permission]bool, len(tt.granted))
			for _, p := range tt.granted {
				granted[p] = true
			}
			for _, p := range allPerms {
				if got := tt.role.HasPermission(p); got != granted[p] {
					t.Errorf("permission %#x: expected %v, got %v", int(p), granted[p], got)
				}
			}
		})
	}
}

func TestRoleHasCombinedPermission(t *testing.T) {
	role := &Role{Permissions: 0x07}
	if !role.HasPermission(PermissionComment | PermissionWriteArticles) {
		t.Fatal("expected combined bits to be granted")
	}
	if role.HasPermission(PermissionWriteArticles | PermissionModerateComments) {
		t.Fatal("expected partially held bits to be refused")
	}
}

func TestPermissionBitsDoNotOverlap(t *testing.T) {
	seen := Permission(0)
	for _, p := range []Permission{PermissionFollow, PermissionComment, PermissionWriteArticles, PermissionModerateComments, PermissionAdministrator} {
		if p&(p-1) != 0 {
			t.Fatalf("permission %#x is not a single bit", int(p))
		}
		if seen&p != 0 {
			t.Fatalf("permission %#x overlaps another bit", int(p))
		}
		seen |= p
	}
	if seen&^PermissionAll != 0 {
		t.Fatal("permission outside the administrator mask")
	}
}

func TestPermissionNames(t *testing.T) {
	names := Permission(0x0f).Names()
	expected := []string{"follow", "comment", "write_articles", "moderate_comments"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, names)
		}
	}
}

func TestUserCan(t *testing.T) {
	var nilUser *User
	if nilUser.Can(PermissionFollow) {
		t.Fatal("nil user must not have permissions")
	}

	noRole := &User{ID: 1}
	if noRole.Can(PermissionFollow) || noRole.IsAdministrator() {
		t.Fatal("user without a resolved role must not have permissions")
	}

	admin := &User{ID: 2, Role: &Role{Name: RoleAdministrator, Permissions: PermissionAll}}
	if !admin.IsAdministrator() || !admin.Can(PermissionModerateComments) {
		t.Fatal("administrator must hold every permission")
	}
}
