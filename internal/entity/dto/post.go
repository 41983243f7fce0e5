package dto

import (
	"devforum/internal/entity/common"
	"time"
)

type PostRequest struct {
	Title   string   `json:"title" binding:"required,max=100"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags"`
}

type PostSummary struct {
	ID         uint          `json:"id"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Author     AuthorSummary `json:"author"`
	Tags       []Tag         `json:"tags"`
	DatePosted time.Time     `json:"date_posted"`
}

type PostListResponse struct {
	Posts []PostSummary `json:"posts"`
	Meta  *common.Meta  `json:"meta"`
}

type PostDetailResponse struct {
	Post     PostSummary `json:"post"`
	Comments []Comment   `json:"comments"`
	Meta     *common.Meta `json:"meta"`
}

// HomeResponse is the landing page feed.
type HomeResponse struct {
	Posts     []PostSummary `json:"posts"`
	Meta      *common.Meta  `json:"meta"`
	Tags      []string      `json:"tags"`
	UserCount int64         `json:"user_count"`
	PostCount int64         `json:"post_count"`
}

type PostQuery struct {
	common.BaseParams
}

type SearchQuery struct {
	Query string `form:"q" binding:"required"`
}

type CommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type Comment struct {
	ID        uint          `json:"id"`
	PostID    uint          `json:"post_id"`
	Body      string        `json:"body"`
	BodyHTML  string        `json:"body_html"`
	Disabled  bool          `json:"disabled"`
	Author    AuthorSummary `json:"author"`
	Timestamp time.Time     `json:"timestamp"`
}

type CommentListResponse struct {
	Comments []Comment   `json:"comments"`
	Meta     *common.Meta `json:"meta"`
}
