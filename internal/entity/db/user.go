package db

import "time"

const DefaultImageFile = "default.jpg"

// User 表示持久化的用户账户。
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"member_since"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `gorm:"column:username;type:varchar(20);uniqueIndex;not null" json:"username"`
	Email    string `gorm:"column:email;type:varchar(120);uniqueIndex;not null" json:"email"`
	Name     string `gorm:"column:name;type:varchar(64)" json:"name"`
	Country  string `gorm:"column:country;type:varchar(64);not null;default:''" json:"country"`
	AboutMe  string `gorm:"column:about_me;type:text" json:"about_me"`
	// ImageFile is a storage key, or DefaultImageFile.
	ImageFile string `gorm:"column:image_file;type:varchar(255);not null;default:'default.jpg'" json:"image_file"`

	// PasswordHash is nil for externally provisioned accounts.
	PasswordHash *string `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	Confirmed    bool    `gorm:"column:confirmed;not null;default:false" json:"confirmed"`

	RoleID uint  `gorm:"column:role_id;index;not null" json:"role_id"`
	Role   *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName 指定表名。
func (User) TableName() string {
	return "user"
}

// Can reports whether the user's resolved role grants perm.
func (u *User) Can(perm Permission) bool {
	if u == nil || u.Role == nil {
		return false
	}
	return u.Role.HasPermission(perm)
}

// IsAdministrator is shorthand for Can(PermissionAdministrator).
func (u *User) IsAdministrator() bool {
	return u.Can(PermissionAdministrator)
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}
