package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"devforum/internal/authz"
	"devforum/internal/config"
	"devforum/internal/content"
	"devforum/internal/entity/common"
	"devforum/internal/entity/converter"
	"devforum/internal/entity/db"
	"devforum/internal/entity/dto"
	"devforum/internal/metrics"
	"devforum/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	maxTitleLength   = 100
	maxTagNameLength = 64
	homeTagLimit     = 6
)

// PostService 管理文章、标签与评论，所有写操作都先经过 authz 检查。
type PostService struct {
	repo    model.Repository
	metrics *metrics.Metrics

	postsPerPage     int64
	commentsPerPage  int64
	maxSearchResults int
}

func NewPostService(cfg config.Config, repo model.Repository, m *metrics.Metrics) *PostService {
	return &PostService{
		repo:             repo,
		metrics:          m,
		postsPerPage:     int64(cfg.PostsPerPage),
		commentsPerPage:  int64(cfg.CommentsPerPage),
		maxSearchResults: cfg.MaxSearchResults,
	}
}

// tagsFromNames trims, drops blanks and keeps the first of exact duplicates.
func tagsFromNames(names []string) ([]db.Tag, error) {
	seen := make(map[string]struct{}, len(names))
	tags := make([]db.Tag, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > maxTagNameLength {
			return nil, fieldError("tags", "tag names are limited to 64 characters")
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, db.Tag{Name: name, Slug: content.Slugify(name)})
	}
	return tags, nil
}

func validatePost(req dto.PostRequest) (string, string, error) {
	verr := &ValidationError{}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		verr.Add("title", "title is required")
	} else if utf8.RuneCountInString(title) > maxTitleLength {
		verr.Add("title", "title is limited to 100 characters")
	}
	body := content.SanitizePost(req.Content)
	if strings.TrimSpace(body) == "" {
		verr.Add("content", "content is required")
	}
	return title, body, verr.Err()
}

func (s *PostService) CreatePost(ctx context.Context, actor authz.Actor, req dto.PostRequest) (*db.Post, error) {
	if err := authz.CanCreatePost(actor); err != nil {
		return nil, denied(s.metrics, err)
	}
	title, body, err := validatePost(req)
	if err != nil {
		return nil, err
	}
	tags, err := tagsFromNames(req.Tags)
	if err != nil {
		return nil, err
	}

	post := &db.Post{Title: title, Content: body, AuthorID: actor.UserID()}
	if err := s.repo.CreatePost(ctx, post, tags); err != nil {
		return nil, translate(err)
	}
	logrus.WithFields(logrus.Fields{"post_id": post.ID, "author_id": post.AuthorID}).Info("post created")
	created, err := s.repo.GetPost(ctx, post.ID)
	return created, translate(err)
}

// UpdatePost rewrites title and content and attaches only tag names that do
// not exist anywhere yet. Tags missing from req stay linked. A unique violation rolls the whole update back.
func (s *PostService) UpdatePost(ctx context.Context, actor authz.Actor, id uint, req dto.PostRequest) (*db.Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := authz.CanUpdatePost(actor, post); err != nil {
		return nil, denied(s.metrics, err)
	}
	title, body, err := validatePost(req)
	if err != nil {
		return nil, err
	}
	tags, err := tagsFromNames(req.Tags)
	if err != nil {
		return nil, err
	}

	post.Title = title
	post.Content = body
	if err := s.repo.UpdatePost(ctx, post, tags); err != nil {
		err = translate(err)
		if err == ErrIntegrityConflict {
			logrus.WithField("post_id", id).Warn("post update rolled back on conflict")
		}
		return nil, err
	}
	updated, err := s.repo.GetPost(ctx, id)
	return updated, translate(err)
}

// DeletePost removes the post, its comments and its tag links. Only the
// author may delete, administrators included.
func (s *PostService) DeletePost(ctx context.Context, actor authz.Actor, id uint) error {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return translate(err)
	}
	if err := authz.CanDeletePost(actor, post); err != nil {
		return denied(s.metrics, err)
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return translate(err)
	}
	logrus.WithFields(logrus.Fields{"post_id": id, "user_id": actor.UserID()}).Info("post deleted")
	return nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*db.Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	return post, translate(err)
}

// PostDetail returns a post and one page of its comments, oldest first.
// page == common.LastPage selects the final page.
func (s *PostService) PostDetail(ctx context.Context, actor authz.Actor, id uint, page int64) (*dto.PostDetailResponse, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	comments, err := s.ListComments(ctx, actor, id, page)
	if err != nil {
		return nil, err
	}
	return &dto.PostDetailResponse{
		Post:     converter.PostToSummary(post),
		Comments: comments.Comments,
		Meta:     comments.Meta,
	}, nil
}

// ListComments hides disabled comments from readers who cannot moderate.
func (s *PostService) ListComments(ctx context.Context, actor authz.Actor, postID uint, page int64) (*dto.CommentListResponse, error) {
	includeDisabled := actor != nil && actor.Can(db.PermissionModerateComments)
	comments, meta, err := s.repo.ListPostComments(ctx, postID, includeDisabled, common.BaseParams{Page: page, PageSize: s.commentsPerPage})
	if err != nil {
		return nil, err
	}
	return &dto.CommentListResponse{Comments: converter.CommentsToDTOs(comments), Meta: meta}, nil
}

// AddComment renders body to sanitized HTML before storing it.
func (s *PostService) AddComment(ctx context.Context, actor authz.Actor, postID uint, body string) (*db.Comment, error) {
	if err := authz.CanComment(actor); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return nil, translate(err)
	}
	rendered, err := content.NewCommentBody(body)
	if err != nil {
		return nil, err
	}
	if rendered.IsEmpty() {
		return nil, fieldError("body", "comment is required")
	}

	user, _ := authz.UserOf(actor)
	comment := &db.Comment{
		Body:     rendered.Raw(),
		BodyHTML: rendered.HTML(),
		AuthorID: user.ID,
		PostID:   postID,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, translate(err)
	}
	comment.Author = user
	return comment, nil
}

// SetCommentVisibility flips the moderation flag of a comment.
func (s *PostService) SetCommentVisibility(ctx context.Context, actor authz.Actor, commentID uint, disabled bool) (*db.Comment, error) {
	if err := authz.CanModerate(actor); err != nil {
		return nil, denied(s.metrics, err)
	}
	comment, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return nil, translate(err)
	}
	if err := s.repo.SetCommentDisabled(ctx, commentID, disabled); err != nil {
		return nil, translate(err)
	}
	s.metrics.CommentModerated(disabled)
	logrus.WithFields(logrus.Fields{
		"comment_id":   commentID,
		"disabled":     disabled,
		"moderator_id": actor.UserID(),
	}).Info("comment moderated")
	comment.Disabled = disabled
	return comment, nil
}

// ModerationQueue lists every comment oldest first, disabled ones included.
func (s *PostService) ModerationQueue(ctx context.Context, actor authz.Actor, page int64) (*dto.CommentListResponse, error) {
	if err := authz.CanModerate(actor); err != nil {
		return nil, denied(s.metrics, err)
	}
	comments, meta, err := s.repo.ListAllComments(ctx, common.BaseParams{Page: page, PageSize: s.commentsPerPage})
	if err != nil {
		return nil, err
	}
	return &dto.CommentListResponse{Comments: converter.CommentsToDTOs(comments), Meta: meta}, nil
}

// Home 返回首页文章流及站点统计。
func (s *PostService) Home(ctx context.Context, page int64) (*dto.HomeResponse, error) {
	posts, meta, err := s.repo.ListPosts(ctx, common.BaseParams{Page: page, PageSize: s.postsPerPage})
	if err != nil {
		return nil, err
	}
	tags, err := s.repo.ListTagNames(ctx, homeTagLimit)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountPosts(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.HomeResponse{
		Posts:     converter.PostsToSummaries(posts),
		Meta:      meta,
		Tags:      tags,
		UserCount: users,
		PostCount: total,
	}, nil
}

func (s *PostService) Search(ctx context.Context, keyword string) (*dto.PostListResponse, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fieldError("q", "search query is required")
	}
	posts, err := s.repo.SearchPosts(ctx, keyword, s.maxSearchResults)
	if err != nil {
		return nil, err
	}
	total := int64(len(posts))
	return &dto.PostListResponse{
		Posts: converter.PostsToSummaries(posts),
		Meta:  common.NewMeta(total, 1, int64(s.maxSearchResults)),
	}, nil
}

func (s *PostService) PostsByTag(ctx context.Context, slug string, page int64) (*dto.PostListResponse, error) {
	posts, meta, err := s.repo.ListPostsByTagSlug(ctx, strings.TrimSpace(slug), common.BaseParams{Page: page, PageSize: s.postsPerPage})
	if err != nil {
		return nil, err
	}
	return &dto.PostListResponse{Posts: converter.PostsToSummaries(posts), Meta: meta}, nil
}

func (s *PostService) ListTags(ctx context.Context) (*dto.TagListResponse, error) {
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.TagListResponse{Tags: converter.TagsToDTOs(tags)}, nil
}
