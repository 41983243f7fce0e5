package model

import (
	"context"

	"devforum/internal/entity/common"
	"devforum/internal/entity/db"
	"devforum/internal/entity/dto"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 角色
	UpsertRoles(ctx context.Context, roles []db.Role) error
	ListRoles(ctx context.Context) ([]db.Role, error)
	GetRoleByID(ctx context.Context, id uint) (*db.Role, error)
	GetRoleByName(ctx context.Context, name string) (*db.Role, error)
	GetDefaultRole(ctx context.Context) (*db.Role, error)

	// 用户管理
	CreateUser(ctx context.Context, user *db.User) error
	UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error
	GetUserByID(ctx context.Context, id uint) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByUsername(ctx context.Context, username string) (*db.User, error)
	ListUsers(ctx context.Context, params *dto.UserQuery) ([]db.User, *common.Meta, error)
	CountUsers(ctx context.Context) (int64, error)

	// 文章
	CreatePost(ctx context.Context, post *db.Post, tags []db.Tag) error
	UpdatePost(ctx context.Context, post *db.Post, tags []db.Tag) error
	DeletePost(ctx context.Context, id uint) error
	GetPost(ctx context.Context, id uint) (*db.Post, error)
	ListPosts(ctx context.Context, params common.BaseParams) ([]db.Post, *common.Meta, error)
	ListPostsByAuthor(ctx context.Context, authorID uint, params common.BaseParams) ([]db.Post, *common.Meta, error)
	ListPostsByTagSlug(ctx context.Context, slug string, params common.BaseParams) ([]db.Post, *common.Meta, error)
	SearchPosts(ctx context.Context, keyword string, limit int) ([]db.Post, error)
	CountPosts(ctx context.Context) (int64, error)

	// 标签
	ListTags(ctx context.Context) ([]db.Tag, error)
	ListTagNames(ctx context.Context, limit int) ([]string, error)

	// 评论
	CreateComment(ctx context.Context, comment *db.Comment) error
	GetComment(ctx context.Context, id uint) (*db.Comment, error)
	ListPostComments(ctx context.Context, postID uint, includeDisabled bool, params common.BaseParams) ([]db.Comment, *common.Meta, error)
	ListAllComments(ctx context.Context, params common.BaseParams) ([]db.Comment, *common.Meta, error)
	SetCommentDisabled(ctx context.Context, id uint, disabled bool) error
	CountComments(ctx context.Context) (int64, error)

	// Close releases the underlying connections.
	Close() error
}
