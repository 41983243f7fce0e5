package authz

import (
	"errors"
	"fmt"

	"devforum/internal/entity/db"
)

var (
	// ErrNotAuthenticated is returned when an anonymous actor attempts a
	// mutating operation.
	ErrNotAuthenticated = errors.New("authentication required")
	// ErrAccessDenied covers missing permission bits and failed ownership checks.
	ErrAccessDenied = errors.New("access denied")
)

// DeniedError records which check failed. It matches ErrAccessDenied with errors.Is.
type DeniedError struct {
	Action string
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Reason)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

// Action names used for logging and metrics.
const (
	ActionCreatePost = "create_post"
	ActionUpdatePost = "update_post"
	ActionDeletePost = "delete_post"
	ActionModerate   = "moderate_comments"
	ActionAdminister = "administer"
)

// RequireAuthenticated is step 1 of every gate.
func RequireAuthenticated(a Actor) (*db.User, error) {
	u, ok := UserOf(a)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return u, nil
}

// Require checks authentication and then the permission bit.
func Require(a Actor, perm db.Permission, action string) error {
	if _, err := RequireAuthenticated(a); err != nil {
		return err
	}
	if !a.Can(perm) {
		return &DeniedError{Action: action, Reason: "missing permission " + permissionLabel(perm)}
	}
	return nil
}

// CanCreatePost requires WRITE_ARTICLES.
func CanCreatePost(a Actor) error {
	return Require(a, db.PermissionWriteArticles, ActionCreatePost)
}

// CanUpdatePost requires WRITE_ARTICLES and authorship, with an
// administrator override.
func CanUpdatePost(a Actor, post *db.Post) error {
	if err := Require(a, db.PermissionWriteArticles, ActionUpdatePost); err != nil {
		return err
	}
	if post.IsAuthoredBy(a.UserID()) || a.IsAdministrator() {
		return nil
	}
	return &DeniedError{Action: ActionUpdatePost, Reason: "not the author"}
}

// CanDeletePost requires authorship. Administrators get no override here.
func CanDeletePost(a Actor, post *db.Post) error {
	if _, err := RequireAuthenticated(a); err != nil {
		return err
	}
	if !post.IsAuthoredBy(a.UserID()) {
		return &DeniedError{Action: ActionDeletePost, Reason: "not the author"}
	}
	return nil
}

// CanComment only requires an authenticated actor; the COMMENT bit is
// enforced by the routing layer.
func CanComment(a Actor) error {
	_, err := RequireAuthenticated(a)
	return err
}

func CanModerate(a Actor) error {
	return Require(a, db.PermissionModerateComments, ActionModerate)
}

func CanAdminister(a Actor) error {
	return Require(a, db.PermissionAdministrator, ActionAdminister)
}

func permissionLabel(perm db.Permission) string {
	if names := perm.Names(); len(names) == 1 {
		return names[0]
	}
	return fmt.Sprintf("0x%02x", int(perm))
}
