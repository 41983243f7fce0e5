package authz

import (
	"errors"
	"testing"

	"devforum/internal/entity/db"
)

var (
	userRole      = &db.Role{ID: 1, Name: db.RoleUser, Default: true, Permissions: 0x07}
	moderatorRole = &db.Role{ID: 2, Name: db.RoleModerator, Permissions: 0x0f}
	adminRole     = &db.Role{ID: 3, Name: db.RoleAdministrator, Permissions: db.PermissionAll}
)

func member(id uint, role *db.Role) Actor {
	return Member{User: &db.User{ID: id, RoleID: role.ID, Role: role}}
}

func TestAnonymousHasNoPermissions(t *testing.T) {
	var a Actor = Anonymous{}
	for p := db.Permission(0); p <= db.PermissionAll; p++ {
		if a.Can(p) {
			t.Fatalf("anonymous can %#x", int(p))
		}
	}
	if a.IsAdministrator() {
		t.Fatal("anonymous must not be administrator")
	}
	if a.UserID() != 0 {
		t.Fatal("anonymous must not carry a user id")
	}
}

func TestNewActor(t *testing.T) {
	if _, ok := NewActor(nil).(Anonymous); !ok {
		t.Fatal("nil user should become Anonymous")
	}
	a := NewActor(&db.User{ID: 9})
	if _, ok := a.(Member); !ok || a.UserID() != 9 {
		t.Fatalf("expected member 9, got %#v", a)
	}
	if a.Can(db.PermissionFollow) {
		t.Fatal("member without role must not have permissions")
	}
}

func TestPostGate(t *testing.T) {
	post := &db.Post{ID: 1, AuthorID: 10}

	author := member(10, userRole)
	other := member(11, userRole)
	admin := member(12, adminRole)
	noWrite := member(10, &db.Role{Name: "Reader", Permissions: db.PermissionFollow})

	tests := []struct {
		name    string
		check   func() error
		wantErr error
	}{
		{"author updates", func() error { return CanUpdatePost(author, post) }, nil},
		{"other user updates", func() error { return CanUpdatePost(other, post) }, ErrAccessDenied},
		{"admin updates", func() error { return CanUpdatePost(admin, post) }, nil},
		{"anonymous updates", func() error { return CanUpdatePost(Anonymous{}, post) }, ErrNotAuthenticated},
		{"author without write bit updates", func() error { return CanUpdatePost(noWrite, post) }, ErrAccessDenied},
		{"author deletes", func() error { return CanDeletePost(author, post) }, nil},
		{"other user deletes", func() error { return CanDeletePost(other, post) }, ErrAccessDenied},
		{"admin deletes", func() error { return CanDeletePost(admin, post) }, ErrAccessDenied},
		{"anonymous deletes", func() error { return CanDeletePost(Anonymous{}, post) }, ErrNotAuthenticated},
		{"user creates", func() error { return CanCreatePost(author) }, nil},
		{"reader creates", func() error { return CanCreatePost(noWrite) }, ErrAccessDenied},
		{"anonymous creates", func() error { return CanCreatePost(Anonymous{}) }, ErrNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestModerationAndAdminGate(t *testing.T) {
	if err := CanModerate(member(1, userRole)); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("user must not moderate, got %v", err)
	}
	if err := CanModerate(member(1, moderatorRole)); err != nil {
		t.Fatalf("moderator should moderate, got %v", err)
	}
	if err := CanModerate(member(1, adminRole)); err != nil {
		t.Fatalf("admin should moderate, got %v", err)
	}
	if err := CanAdminister(member(1, moderatorRole)); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("moderator must not administer, got %v", err)
	}
	if err := CanAdminister(member(1, adminRole)); err != nil {
		t.Fatalf("admin should administer, got %v", err)
	}
	if err := CanComment(Anonymous{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("anonymous must not comment, got %v", err)
	}
}

func TestDeniedErrorMessage(t *testing.T) {
	err := CanCreatePost(member(1, &db.Role{}))
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected DeniedError, got %T", err)
	}
	if denied.Action != ActionCreatePost || denied.Reason != "missing permission write_articles" {
		t.Fatalf("unexpected denial %+v", denied)
	}
}
