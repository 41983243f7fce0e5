package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devforum/internal/entity/db"

	"gorm.io/gorm"
)

// UpsertRoles looks every role up by name, creates the missing ones and
// overwrites mask and default flag on the rest, all in one transaction.
func (r *GormRepository) UpsertRoles(ctx context.Context, roles []db.Role) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range roles {
			var existing db.Role
			err := tx.Where("name = ?", seed.Name).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				role := seed
				if err := tx.Create(&role).Error; err != nil {
					return fmt.Errorf("create role %s: %w", seed.Name, err)
				}
			case err != nil:
				return err
			default:
				if err := tx.Model(&existing).Updates(map[string]interface{}{
					"permissions": seed.Permissions,
					"is_default":  seed.Default,
				}).Error; err != nil {
					return fmt.Errorf("update role %s: %w", seed.Name, err)
				}
			}
		}
		return nil
	})
}

// ListRoles returns all roles ordered by id.
func (r *GormRepository) ListRoles(ctx context.Context) ([]db.Role, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var roles []db.Role
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *GormRepository) GetRoleByID(ctx context.Context, id uint) (*db.Role, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var role db.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *GormRepository) GetRoleByName(ctx context.Context, name string) (*db.Role, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var role db.Role
	if err := r.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// GetDefaultRole returns the role flagged as default.
func (r *GormRepository) GetDefaultRole(ctx context.Context) (*db.Role, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var role db.Role
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).Order("id ASC").First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
