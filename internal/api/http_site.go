package api

import (
	"context"
	"net/http"
	"time"

	"devforum/internal/entity/dto"

	"github.com/gin-gonic/gin"
)

// Subscribe accepts the newsletter form as JSON or form data.
func (h *HTTPHandler) Subscribe(c *gin.Context) {
	var req dto.SubscribeRequest
	if err := c.ShouldBind(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.site.Subscribe(ctx, req); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "Thanks for subscribing!"})
}

func (h *HTTPHandler) Contact(c *gin.Context) {
	h.forwardEnquiry(c, h.site.Contact)
}

func (h *HTTPHandler) Advertise(c *gin.Context) {
	h.forwardEnquiry(c, h.site.Advertise)
}

func (h *HTTPHandler) forwardEnquiry(c *gin.Context, send func(context.Context, dto.ContactRequest) error) {
	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := send(ctx, req); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "Your message has been sent. We will get back to you shortly."})
}
