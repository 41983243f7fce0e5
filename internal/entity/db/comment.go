package db

import "time"

// Comment 评论。BodyHTML 只能由 content.NewCommentBody 生成。
type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"column:timestamp;index" json:"timestamp"`

	Body     string `gorm:"column:body;type:text" json:"body"`
	BodyHTML string `gorm:"column:body_html;type:text" json:"body_html"`
	// Disabled hides the comment from reader listings; moderators still see it.
	Disabled bool `gorm:"column:disabled;not null;default:false" json:"disabled"`

	AuthorID uint  `gorm:"column:author_id;index" json:"author_id"`
	Author   *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PostID   uint  `gorm:"column:post_id;index" json:"post_id"`
	Post     *Post `gorm:"foreignKey:PostID" json:"-"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comment"
}
