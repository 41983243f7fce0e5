package api

import (
	"context"
	"net/http"
	"time"

	"devforum/internal/entity/converter"

	"github.com/gin-gonic/gin"
)

// ModerationQueue lists all comments oldest first, disabled ones included.
func (h *HTTPHandler) ModerationQueue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.posts.ModerationQueue(ctx, CurrentActor(c), pageParam(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) EnableComment(c *gin.Context)  { h.setCommentVisibility(c, false) }
func (h *HTTPHandler) DisableComment(c *gin.Context) { h.setCommentVisibility(c, true) }

func (h *HTTPHandler) setCommentVisibility(c *gin.Context, disabled bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	comment, err := h.posts.SetCommentVisibility(ctx, CurrentActor(c), id, disabled)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, converter.CommentToDTO(comment))
}
