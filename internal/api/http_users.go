package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"devforum/internal/entity/converter"
	"devforum/internal/entity/dto"
	"devforum/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (h *HTTPHandler) Profile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.users.Profile(ctx, c.Param("username"), pageParam(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) UpdateAccount(c *gin.Context) {
	var req dto.AccountUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.UpdateAccount(ctx, CurrentActor(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// UploadAvatar expects a multipart form with a "picture" file.
func (h *HTTPHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("picture")
	if err != nil {
		MissingField(c, "picture")
		return
	}
	if file.Size > service.MaxAvatarBytes {
		BadRequest(c, ErrCodeValidation, "picture is too large")
		return
	}
	src, err := file.Open()
	if err != nil {
		logrus.WithError(err).Warn("failed to open uploaded picture")
		InvalidPayload(c, err)
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, service.MaxAvatarBytes+1))
	if err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	user, err := h.users.UploadAvatar(ctx, CurrentActor(c), data)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeValidation, field+" is required",
		gin.H{"fields": map[string]string{field: "required"}})
}

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var query dto.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		InvalidPayload(c, err)
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.users.ListUsers(ctx, CurrentActor(c), query)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) AdminUpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.AdminUserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.AdminUpdateUser(ctx, CurrentActor(c), id, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

func (h *HTTPHandler) ListRoles(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	roles, err := h.users.ListRoles(ctx, CurrentActor(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (h *HTTPHandler) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.site.Stats(ctx, CurrentActor(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
