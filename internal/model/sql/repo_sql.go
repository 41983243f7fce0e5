package sql

import (
	"devforum/internal/entity/common"

	"gorm.io/gorm"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// DB exposes the underlying connection for lifecycle management.
func (r *GormRepository) DB() *gorm.DB {
	if r == nil {
		return nil
	}
	return r.db
}

// Close releases the connection pool.
func (r *GormRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// paginate counts query, resolves the page and applies offset/limit.
// The count runs on a clone so the caller's query keeps its ordering.
func paginate(query *gorm.DB, params common.BaseParams, defaultPageSize int64) (*gorm.DB, *common.Meta, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, nil, err
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	meta := common.NewMeta(total, params.Page, pageSize)
	return query.Offset(meta.Offset()).Limit(int(meta.PageSize)), meta, nil
}
