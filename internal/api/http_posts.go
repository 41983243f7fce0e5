package api

import (
	"context"
	"net/http"
	"time"

	"devforum/internal/entity/converter"
	"devforum/internal/entity/dto"

	"github.com/gin-gonic/gin"
)

// Home 首页：文章流、统计，并异步记录访客地理位置。
func (h *HTTPHandler) Home(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.posts.Home(ctx, pageParam(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	h.site.TrackVisit(ctx, c.ClientIP())
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.posts.Search(ctx, query.Query)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetPost returns the post with one page of comments; ?page=-1 is the last page.
func (h *HTTPHandler) GetPost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.posts.PostDetail(ctx, CurrentActor(c), id, pageParam(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) CreatePost(c *gin.Context) {
	var req dto.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	post, err := h.posts.CreatePost(ctx, CurrentActor(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, converter.PostToSummary(post))
}

func (h *HTTPHandler) UpdatePost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	post, err := h.posts.UpdatePost(ctx, CurrentActor(c), id, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, converter.PostToSummary(post))
}

func (h *HTTPHandler) DeletePost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.posts.DeletePost(ctx, CurrentActor(c), id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ListComments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.posts.GetPost(ctx, id); err != nil {
		RespondError(c, err)
		return
	}
	resp, err := h.posts.ListComments(ctx, CurrentActor(c), id, pageParam(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) AddComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	comment, err := h.posts.AddComment(ctx, CurrentActor(c), id, req.Body)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, converter.CommentToDTO(comment))
}
