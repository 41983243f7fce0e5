package dto

import (
	"devforum/internal/entity/common"
	"time"
)

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	Country     string    `json:"country"`
	AboutMe     string    `json:"about_me,omitempty"`
	ImageURL    string    `json:"image_url"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Confirmed   bool      `json:"confirmed"`
	MemberSince time.Time `json:"member_since"`
}

// AuthorSummary is the public view of a content author.
type AuthorSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	common.BaseParams
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

// UserListResponse is the response for listing users.
type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *common.Meta  `json:"meta"`
}

// UserProfileResponse is a public profile with the user's posts.
type UserProfileResponse struct {
	User  UserSummary   `json:"user"`
	Posts []PostSummary `json:"posts"`
	Meta  *common.Meta  `json:"meta"`
}

// AccountUpdateRequest is the payload for editing one's own account.
type AccountUpdateRequest struct {
	Username string `json:"username" binding:"required,min=2,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"max=64"`
	Country  string `json:"country" binding:"required"`
	AboutMe  string `json:"about_me"`
}

// AdminUserUpdateRequest is the payload for the admin profile editor.
type AdminUserUpdateRequest struct {
	Email     *string `json:"email,omitempty" binding:"omitempty,email,max=64"`
	Username  *string `json:"username,omitempty" binding:"omitempty,min=1,max=20"`
	Confirmed *bool   `json:"confirmed,omitempty"`
	RoleID    *uint   `json:"role_id,omitempty"`
	Name      *string `json:"name,omitempty" binding:"omitempty,max=64"`
	Country   *string `json:"country,omitempty"`
	AboutMe   *string `json:"about_me,omitempty"`
}

// RoleSummary describes a role for the admin console.
type RoleSummary struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Default     bool     `json:"is_default"`
	Mask        int      `json:"permissions"`
	Permissions []string `json:"permission_names"`
}

// SiteStats is the admin dashboard summary.
type SiteStats struct {
	Users    int64 `json:"users"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
}
