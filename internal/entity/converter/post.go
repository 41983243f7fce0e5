package converter

import (
	"devforum/internal/entity/db"
	"devforum/internal/entity/dto"
)

func TagToDTO(t *db.Tag) dto.Tag {
	if t == nil {
		return dto.Tag{}
	}
	return dto.Tag{ID: t.ID, Name: t.Name, Slug: t.Slug, PostCount: t.PostCount}
}

func TagsToDTOs(tags []db.Tag) []dto.Tag {
	out := make([]dto.Tag, len(tags))
	for i := range tags {
		out[i] = TagToDTO(&tags[i])
	}
	return out
}

// PostToSummary converts a db.Post to dto.PostSummary. Content is returned as stored.
func PostToSummary(p *db.Post) dto.PostSummary {
	if p == nil {
		return dto.PostSummary{}
	}
	return dto.PostSummary{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		Author:     UserToAuthor(p.Author),
		Tags:       TagsToDTOs(p.Tags),
		DatePosted: p.CreatedAt,
	}
}

func PostsToSummaries(posts []db.Post) []dto.PostSummary {
	out := make([]dto.PostSummary, len(posts))
	for i := range posts {
		out[i] = PostToSummary(&posts[i])
	}
	return out
}

func CommentToDTO(c *db.Comment) dto.Comment {
	if c == nil {
		return dto.Comment{}
	}
	return dto.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Body:      c.Body,
		BodyHTML:  c.BodyHTML,
		Disabled:  c.Disabled,
		Author:    UserToAuthor(c.Author),
		Timestamp: c.CreatedAt,
	}
}

func CommentsToDTOs(comments []db.Comment) []dto.Comment {
	out := make([]dto.Comment, len(comments))
	for i := range comments {
		out[i] = CommentToDTO(&comments[i])
	}
	return out
}
