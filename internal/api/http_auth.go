package api

import (
	"context"
	"net/http"
	"time"

	"devforum/internal/entity/converter"
	"devforum/internal/entity/dto"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.users.Register(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":    converter.UserToSummary(user),
		"message": "A confirmation email has been sent to you by email.",
	})
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.users.Login(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.Current(ctx, CurrentActor(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

func (h *HTTPHandler) Confirm(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.Confirm(ctx, CurrentActor(c), c.Param("token")); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "You have confirmed your account. Thanks!"})
}

func (h *HTTPHandler) ResendConfirmation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.ResendConfirmation(ctx, CurrentActor(c)); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "A new confirmation email has been sent to you by email."})
}

// RequestPasswordReset answers the same way whether or not the address is known.
func (h *HTTPHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.RequestPasswordReset(ctx, req.Email); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "If that address is registered, an email with instructions has been sent."})
}

func (h *HTTPHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.users.ResetPassword(ctx, c.Param("token"), req); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Your password has been updated. You are now able to log in."})
}
