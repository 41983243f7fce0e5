package sql

import (
	"context"
	"testing"

	"devforum/internal/entity/common"
	"devforum/internal/entity/db"
	"devforum/internal/entity/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.SetupJoinTable(&db.Post{}, "Tags", &db.PostTag{}))
	require.NoError(t, gdb.AutoMigrate(&db.Role{}, &db.User{}, &db.Tag{}, &db.Post{}, &db.PostTag{}, &db.Comment{}))
	return gdb
}

func newTestRepo(t *testing.T) (*GormRepository, *gorm.DB) {
	gdb := newTestDB(t)
	return NewGormRepository(gdb), gdb
}

var seedRoles = []db.Role{
	{Name: db.RoleUser, Default: true, Permissions: 0x07},
	{Name: db.RoleModerator, Permissions: 0x0f},
	{Name: db.RoleAdministrator, Permissions: db.PermissionAll},
}

func mustUser(t *testing.T, repo *GormRepository, username string) *db.User {
	t.Helper()
	ctx := context.Background()
	role, err := repo.GetDefaultRole(ctx)
	require.NoError(t, err)
	u := &db.User{Username: username, Email: username + "@example.com", RoleID: role.ID, ImageFile: db.DefaultImageFile}
	require.NoError(t, repo.CreateUser(ctx, u))
	return u
}

func TestUpsertRolesIsIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.UpsertRoles(ctx, seedRoles))

		roles, err := repo.ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 3)

		defaults := 0
		for _, r := range roles {
			if r.Default {
				defaults++
				assert.Equal(t, db.RoleUser, r.Name)
			}
		}
		assert.Equal(t, 1, defaults)
	}
}

func TestUpsertRolesOverwritesMask(t *testing.T) {
	repo, gdb := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, gdb.Create(&db.Role{Name: db.RoleModerator, Default: true, Permissions: 0x01}).Error)
	require.NoError(t, repo.UpsertRoles(ctx, seedRoles))

	mod, err := repo.GetRoleByName(ctx, db.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, db.Permission(0x0f), mod.Permissions)
	assert.False(t, mod.Default)

	def, err := repo.GetDefaultRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.RoleUser, def.Name)
}

func TestCreateUserLoadsRole(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertRoles(ctx, seedRoles))

	u := mustUser(t, repo, "ada")
	require.NotNil(t, u.Role)
	assert.Equal(t, db.RoleUser, u.Role.Name)

	byEmail, err := repo.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	require.NotNil(t, byEmail.Role)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	dup := &db.User{Username: "ada", Email: "other@example.com", RoleID: u.RoleID}
	assert.ErrorIs(t, repo.CreateUser(ctx, dup), gorm.ErrDuplicatedKey)
}

func TestListUsersKeyword(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertRoles(ctx, seedRoles))
	mustUser(t, repo, "alice")
	mustUser(t, repo, "bob")

	users, meta, err := repo.ListUsers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, int64(2), meta.Total)


	filtered, meta, err := repo.ListUsers(ctx, &dto.UserQuery{Keyword: "ALI"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "alice", filtered[0].Username)
	assert.Equal(t, int64(1), meta.Total)
}

func TestPostLifecycle(t *testing.T) {
	repo, gdb := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertRoles(ctx, seedRoles))
	author := mustUser(t, repo, "author")

	post := &db.Post{Title: "Hello", Content: "<p>hi</p>", AuthorID: author.ID}
	require.NoError(t, repo.CreatePost(ctx, post, []db.Tag{{Name: "Go", Slug: "go"}, {Name: "C++", Slug: "c-"}}))
	require.NotZero(t, post.ID)
	require.Len(t, post.Tags, 2)

	other := &db.Post{Title: "Second", Content: "<p>x</p>", AuthorID: author.ID}
	require.NoError(t, repo.CreatePost(ctx, other, []db.Tag{{Name: "Go", Slug: "go"}}))

	var tagCount int64
	require.NoError(t, gdb.Model(&db.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(2), tagCount, "tags are reused by exact name")

	post.Title = "Hello again"
	post.Content = "<p>updated</p>"
	require.NoError(t, repo.UpdatePost(ctx, post, []db.Tag{{Name: "Rust", Slug: "rust"}}))

	loaded, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", loaded.Title)
	require.NotNil(t, loaded.Author)
	names := make([]string, 0, len(loaded.Tags))
	for _, tag := range loaded.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"C++", "Go", "Rust"}, names, "update only adds tags")

	require.NoError(t, repo.UpdatePost(ctx, other, []db.Tag{{Name: "Rust", Slug: "rust"}, {Name: "Zig", Slug: "zig"}}))
	loaded, err = repo.GetPost(ctx, other.ID)
	require.NoError(t, err)
	names = names[:0]
	for _, tag := range loaded.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"Go", "Zig"}, names, "existing tag names are not attached on update")

	body := &db.Comment{Body: "nice", BodyHTML: "<p>nice</p>", AuthorID: author.ID, PostID: post.ID}
	require.NoError(t, repo.CreateComment(ctx, body))

	require.NoError(t, repo.DeletePost(ctx, post.ID))

	_, err = repo.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var comments, links int64
	require.NoError(t, gdb.Model(&db.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	require.NoError(t, gdb.Model(&db.PostTag{}).Where("post_id = ?", post.ID).Count(&links).Error)
	assert.Zero(t, comments)
	assert.Zero(t, links)

	require.NoError(t, gdb.Model(&db.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(4), tagCount, "tags survive post deletion")

	assert.ErrorIs(t, repo.DeletePost(ctx, post.ID), gorm.ErrRecordNotFound)
}

func TestUpdatePostRollsBackOnTagConflict(t *testing.T) {
	repo, gdb := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertRoles(ctx, seedRoles))
	author := mustUser(t, repo, "author")

	post := &db.Post{Title: "Original", Content: "<p>body</p>", AuthorID: author.ID}
	require.NoError(t, repo.CreatePost(ctx, post, nil))

	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register("test:tag_conflict", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "tag" {
			_ = tx.AddError(gorm.ErrDuplicatedKey)
		}
	}))

	changed := *post
	changed.Title = "Changed"
	err := repo.UpdatePost(ctx, &changed, []db.Tag{{Name: "Racy", Slug: "racy"}})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	loaded, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", loaded.Title)
	assert.Empty(t, loaded.Tags)
}

func TestListPostsByTagSlugAndSearch(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertRoles(ctx, seedRoles))
	author := mustUser(t, repo, "author")

	require.NoError(t, repo.CreatePost(ctx, &db.Post{Title: "Go tips", Content: "100% fun", AuthorID: author.ID}, []db.Tag{{Name: "Go", Slug: "go"}}))
	require.NoError(t, repo.CreatePost(ctx, &db.Post{Title: "Python", Content: "snakes", AuthorID: author.ID}, []db.Tag{{Name: "Python", Slug: "python"}}))

	posts, meta, err := repo.ListPostsByTagSlug(ctx, "go", common.BaseParams{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Go tips", posts[0].Title)
	assert.Equal(t, int64(1), meta.Total)

	found, err := repo.SearchPosts(ctx, "100%", 50)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = repo.SearchPosts(ctx, "_", 50)
	require.NoError(t, err)
	assert.Empty(t, found, "wildcards are matched literally")

	found, err = repo.SearchPosts(ctx, "1%x", 50)
	require.NoError(t, err)
	assert.Empty(t, found)

	all, meta, err := repo.ListPosts(ctx, common.BaseParams{Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Python", all[0].Title, "newest first")
	assert.Equal(t, int64(2), meta.TotalPages)

	tags, err := repo.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, int64(1), tags[0].PostCount)

	names, err := repo.ListTagNames(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Python"}, names)
}

func TestCommentVisibilityListings(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertRoles(ctx, seedRoles))
	author := mustUser(t, repo, "author")
	post := &db.Post{Title: "t", Content: "c", AuthorID: author.ID}
	require.NoError(t, repo.CreatePost(ctx, post, nil))

	var ids []uint
	for _, body := range []string{"first", "second", "third"} {
		c := &db.Comment{Body: body, BodyHTML: "<p>" + body + "</p>", AuthorID: author.ID, PostID: post.ID}
		require.NoError(t, repo.CreateComment(ctx, c))
		ids = append(ids, c.ID)
	}
	require.NoError(t, repo.SetCommentDisabled(ctx, ids[1], true))

	visible, meta, err := repo.ListPostComments(ctx, post.ID, false, common.BaseParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "first", visible[0].Body)
	assert.Equal(t, int64(2), meta.Total)

	queue, _, err := repo.ListAllComments(ctx, common.BaseParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.True(t, queue[1].Disabled)

	last, meta, err := repo.ListPostComments(ctx, post.ID, true, common.BaseParams{Page: common.LastPage, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.Page)
	require.Len(t, last, 1)
	assert.Equal(t, "third", last[0].Body)

	count, err := repo.CountComments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCloseReleasesPool(t *testing.T) {
	repo, gdb := newTestRepo(t)
	require.NoError(t, repo.Close())

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "pool is closed")

	_, err = repo.CountPosts(context.Background())
	assert.Error(t, err)
}
