package db

import "time"

// Tag labels posts. Slug is derived once from Name when the tag is created.
type Tag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name      string `gorm:"column:name;type:varchar(64);uniqueIndex;not null" json:"name"`
	Slug      string `gorm:"column:slug;type:varchar(64);index" json:"slug"`
	PostCount int64  `gorm:"->;-:migration" json:"post_count,omitempty"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tag"
}

// PostTag 文章与标签的关联表。
type PostTag struct {
	PostID uint `gorm:"primaryKey;column:post_id" json:"post_id"`
	TagID  uint `gorm:"primaryKey;column:tag_id" json:"tag_id"`
}

// TableName 指定表名
func (PostTag) TableName() string {
	return "post_tag"
}
