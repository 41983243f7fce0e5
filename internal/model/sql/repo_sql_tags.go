package sql

import (
	"context"
	"fmt"

	"devforum/internal/entity/db"
)

// ListTags returns all tags with the number of posts using each.
func (r *GormRepository) ListTags(ctx context.Context) ([]db.Tag, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	var tags []db.Tag
	query := r.db.WithContext(ctx).
		Model(&db.Tag{}).
		Select("tag.*, COUNT(post_tag.post_id) AS post_count").
		Joins("LEFT JOIN post_tag ON post_tag.tag_id = tag.id").
		Group("tag.id").
		Order("tag.name ASC")

	if err := query.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// ListTagNames returns up to limit distinct tag names.
func (r *GormRepository) ListTagNames(ctx context.Context, limit int) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if limit <= 0 {
		limit = 6
	}
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&db.Tag{}).
		Distinct("name").
		Order("name ASC").
		Limit(limit).
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
