package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"devforum/internal/entity/common"
	"devforum/internal/entity/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPostsPageSize = 7

// CreatePost inserts the post and links it to tags, creating any tag not
// found by exact name. Nothing is written if any step fails.
func (r *GormRepository) CreatePost(ctx context.Context, post *db.Post, tags []db.Tag) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if post == nil {
		return fmt.Errorf("post is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := findOrCreateTags(tx, tags)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if err := linkTags(tx, post.ID, resolved); err != nil {
			return err
		}
		post.Tags = resolved
		return nil
	})
}

// UpdatePost rewrites title and content. Only names with no tag row yet are
// created and linked; names of existing tags are ignored and existing links
// are never removed.
func (r *GormRepository) UpdatePost(ctx context.Context, post *db.Post, tags []db.Tag) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if post == nil || post.ID == 0 {
		return fmt.Errorf("invalid post")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
			"title":   post.Title,
			"content": post.Content,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		created, err := createMissingTags(tx, tags)
		if err != nil {
			return err
		}
		return linkTags(tx, post.ID, created)
	})
}

// DeletePost removes the post with its comments and tag links. Tags stay.
func (r *GormRepository) DeletePost(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.PostTag{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&db.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetPost loads a post with author and tags.
func (r *GormRepository) GetPost(ctx context.Context, id uint) (*db.Post, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var post db.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tag.name ASC") }).
		First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns posts newest first.
func (r *GormRepository) ListPosts(ctx context.Context, params common.BaseParams) ([]db.Post, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	return r.listPosts(r.db.WithContext(ctx).Model(&db.Post{}), params)
}

func (r *GormRepository) ListPostsByAuthor(ctx context.Context, authorID uint, params common.BaseParams) ([]db.Post, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	return r.listPosts(r.db.WithContext(ctx).Model(&db.Post{}).Where("user_id = ?", authorID), params)
}

// ListPostsByTagSlug returns posts linked to any tag carrying slug.
func (r *GormRepository) ListPostsByTagSlug(ctx context.Context, slug string, params common.BaseParams) ([]db.Post, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	sub := r.db.WithContext(ctx).
		Table("post_tag").
		Select("post_tag.post_id").
		Joins("JOIN tag ON tag.id = post_tag.tag_id").
		Where("tag.slug = ?", slug)
	return r.listPosts(r.db.WithContext(ctx).Model(&db.Post{}).Where("id IN (?)", sub), params)
}

func (r *GormRepository) listPosts(query *gorm.DB, params common.BaseParams) ([]db.Post, *common.Meta, error) {
	paged, meta, err := paginate(query, params, defaultPostsPageSize)
	if err != nil {
		return nil, nil, err
	}
	var posts []db.Post
	if err := paged.Preload("Author").Preload("Tags").Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, nil, err
	}
	return posts, meta, nil
}

// SearchPosts matches keyword against title and content.
func (r *GormRepository) SearchPosts(ctx context.Context, keyword string, limit int) ([]db.Post, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []db.Post{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	like := "%" + escapeLike(keyword) + "%"
	var posts []db.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Where("title LIKE ? ESCAPE '!' OR content LIKE ? ESCAPE '!'", like, like).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *GormRepository) CountPosts(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&db.Post{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// findOrCreateTags resolves each tag by exact name. Slugs of existing tags
// are left as they are.
func findOrCreateTags(tx *gorm.DB, tags []db.Tag) ([]db.Tag, error) {
	resolved := make([]db.Tag, 0, len(tags))
	for _, want := range tags {
		var tag db.Tag
		err := tx.Where("name = ?", want.Name).First(&tag).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			tag = db.Tag{Name: want.Name, Slug: want.Slug}
			if err := tx.Create(&tag).Error; err != nil {
				return nil, fmt.Errorf("create tag %q: %w", want.Name, err)
			}
		default:
			return nil, err
		}
		resolved = append(resolved, tag)
	}
	return resolved, nil
}

// createMissingTags creates the tags whose name has no row yet and returns
// only those.
func createMissingTags(tx *gorm.DB, tags []db.Tag) ([]db.Tag, error) {
	created := make([]db.Tag, 0, len(tags))
	for _, want := range tags {
		var count int64
		if err := tx.Model(&db.Tag{}).Where("name = ?", want.Name).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}
		tag := db.Tag{Name: want.Name, Slug: want.Slug}
		if err := tx.Create(&tag).Error; err != nil {
			return nil, fmt.Errorf("create tag %q: %w", want.Name, err)
		}
		created = append(created, tag)
	}
	return created, nil
}

func linkTags(tx *gorm.DB, postID uint, tags []db.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	links := make([]db.PostTag, 0, len(tags))
	for _, tag := range tags {
		links = append(links, db.PostTag{PostID: postID, TagID: tag.ID})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// '!' is used as the LIKE escape character since backslash handling
// differs between dialects.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
