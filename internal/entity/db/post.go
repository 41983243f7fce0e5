package db

import "time"

// Post is an article owned by its author.
type Post struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"date_posted"`
	UpdatedAt time.Time `json:"updated_at"`

	Title string `gorm:"column:title;type:varchar(100);not null" json:"title"`
	// Content is sanitized HTML.
	Content string `gorm:"column:content;type:text;not null" json:"content"`

	AuthorID uint  `gorm:"column:user_id;index;not null" json:"author_id"`
	Author   *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Tags     []Tag     `gorm:"many2many:post_tag;foreignKey:ID;joinForeignKey:PostID;references:ID;joinReferences:TagID" json:"tags"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"-"`
}

// TableName 指定表名
func (Post) TableName() string {
	return "post"
}

// IsAuthoredBy reports whether userID wrote the post.
func (p *Post) IsAuthoredBy(userID uint) bool {
	return p != nil && userID != 0 && p.AuthorID == userID
}
