package db

import "time"

const (
	RoleUser          = "User"
	RoleModerator     = "Moderator"
	RoleAdministrator = "Administrator"
)

// Role 表示一组命名的权限位。
type Role struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Name        string     `gorm:"column:name;type:varchar(64);uniqueIndex;not null" json:"name"`
	Default     bool       `gorm:"column:is_default;not null;default:false;index" json:"is_default"`
	Permissions Permission `gorm:"column:permissions;not null;default:0" json:"permissions"`
}

// TableName 指定表名。
func (Role) TableName() string {
	return "role"
}

// HasPermission reports whether every bit of perm is set on the role.
// A missing role or an empty mask grants nothing.
func (r *Role) HasPermission(perm Permission) bool {
	if r == nil || r.Permissions == 0 {
		return false
	}
	return r.Permissions&perm == perm
}
