package model

import (
	"context"
	"fmt"

	"devforum/internal/entity/db"

	"github.com/sirupsen/logrus"
)

// DefaultRoles are the roles every installation starts with. User is the
// only default role.
func DefaultRoles() []db.Role {
	return []db.Role{
		{
			Name:        db.RoleUser,
			Default:     true,
			Permissions: db.PermissionFollow | db.PermissionComment | db.PermissionWriteArticles,
		},
		{
			Name:        db.RoleModerator,
			Permissions: db.PermissionFollow | db.PermissionComment | db.PermissionWriteArticles | db.PermissionModerateComments,
		},
		{
			Name:        db.RoleAdministrator,
			Permissions: db.PermissionAll,
		},
	}
}

// SeedDefaultRoles creates missing roles and resets the mask and default
// flag of existing ones in a single transaction. Safe to run on every start.
func SeedDefaultRoles(ctx context.Context, repo Repository) error {
	if repo == nil {
		return fmt.Errorf("repository not initialised")
	}
	roles := DefaultRoles()
	if err := repo.UpsertRoles(ctx, roles); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	logrus.WithField("roles", len(roles)).Info("default roles seeded")
	return nil
}
