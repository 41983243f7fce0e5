package sql

import (
	"context"
	"fmt"

	"devforum/internal/entity/common"
	"devforum/internal/entity/db"

	"gorm.io/gorm"
)

const defaultCommentsPageSize = 4

// CreateComment inserts a comment. Body and BodyHTML must already be set together.
func (r *GormRepository) CreateComment(ctx context.Context, comment *db.Comment) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if comment == nil {
		return fmt.Errorf("comment is nil")
	}
	return r.db.WithContext(ctx).Omit("Author", "Post").Create(comment).Error
}

func (r *GormRepository) GetComment(ctx context.Context, id uint) (*db.Comment, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var comment db.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListPostComments pages through a post's comments, oldest first.
// Disabled comments are skipped unless includeDisabled is set.
func (r *GormRepository) ListPostComments(ctx context.Context, postID uint, includeDisabled bool, params common.BaseParams) ([]db.Comment, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	query := r.db.WithContext(ctx).Model(&db.Comment{}).Where("post_id = ?", postID)
	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}
	return r.listComments(query, params)
}

// ListAllComments is the moderation queue: every comment, oldest first.
func (r *GormRepository) ListAllComments(ctx context.Context, params common.BaseParams) ([]db.Comment, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	return r.listComments(r.db.WithContext(ctx).Model(&db.Comment{}), params)
}

func (r *GormRepository) listComments(query *gorm.DB, params common.BaseParams) ([]db.Comment, *common.Meta, error) {
	paged, meta, err := paginate(query, params, defaultCommentsPageSize)
	if err != nil {
		return nil, nil, err
	}
	var comments []db.Comment
	if err := paged.Preload("Author").Order("timestamp ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, nil, err
	}
	return comments, meta, nil
}

// SetCommentDisabled flips the moderation flag. MySQL reports zero affected
// rows for a no-op update, so existence is the caller's concern.
func (r *GormRepository) SetCommentDisabled(ctx context.Context, id uint, disabled bool) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).Model(&db.Comment{}).Where("id = ?", id).Update("disabled", disabled).Error
}

func (r *GormRepository) CountComments(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&db.Comment{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
