package dto

// Tag is the DTO representation of a tag.
type Tag struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PostCount int64  `json:"post_count,omitempty"`
}

// TagListResponse is the response for listing tags.
type TagListResponse struct {
	Tags []Tag `json:"tags"`
}
