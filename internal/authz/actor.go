// Package authz holds the acting identity and the checks evaluated before
// any content-mutating or privileged operation.
package authz

import "devforum/internal/entity/db"

// Actor is either a Member (an authenticated user) or Anonymous. The set of
// variants is closed; switch on the concrete type where behaviour differs.
type Actor interface {
	Can(perm db.Permission) bool
	IsAdministrator() bool
	// UserID is zero for Anonymous.
	UserID() uint
	actor()
}

// Anonymous is the unauthenticated visitor. It holds no permission at all,
// including the empty mask.
type Anonymous struct{}

func (Anonymous) Can(db.Permission) bool { return false }
func (Anonymous) IsAdministrator() bool  { return false }
func (Anonymous) UserID() uint           { return 0 }
func (Anonymous) actor()                 {}

// Member is an authenticated user with a resolved role.
type Member struct {
	User *db.User
}

func (m Member) Can(perm db.Permission) bool { return m.User.Can(perm) }
func (m Member) IsAdministrator() bool       { return m.User.IsAdministrator() }
func (m Member) actor()                      {}

func (m Member) UserID() uint {
	if m.User == nil {
		return 0
	}
	return m.User.ID
}

// NewActor wraps u, returning Anonymous for nil.
func NewActor(u *db.User) Actor {
	if u == nil {
		return Anonymous{}
	}
	return Member{User: u}
}

// UserOf returns the authenticated user behind a, if any.
func UserOf(a Actor) (*db.User, bool) {
	switch v := a.(type) {
	case Member:
		return v.User, v.User != nil
	case Anonymous:
		return nil, false
	default:
		return nil, false
	}
}
