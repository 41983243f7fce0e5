package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"devforum/internal/authz"
	"devforum/internal/entity/db"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	actorContextKey = "current-actor"
)

// IdentifyActor resolves the acting identity. Requests without an
// Authorization header proceed as Anonymous; a header that does not carry
// a valid session is rejected.
func (h *HTTPHandler) IdentifyActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Set(actorContextKey, authz.Actor(authz.Anonymous{}))
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			Unauthorized(c, "invalid authorization header")
			return
		}

		claims, err := h.authManager.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logrus.WithError(err).Debug("rejected session token")
			ErrorResponse(c, http.StatusUnauthorized, ErrCodeSessionExpired, "session is invalid or has expired")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := h.repo.GetUserByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ErrorResponse(c, http.StatusUnauthorized, ErrCodeUserNotFound, "account no longer exists")
				return
			}
			logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to load user")
			InternalError(c)
			return
		}

		c.Set(actorContextKey, authz.NewActor(user))
		c.Next()
	}
}

// RequireAuth 要求已登录用户
func (h *HTTPHandler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authz.UserOf(CurrentActor(c)); !ok {
			Unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// RequireConfirmed blocks accounts that have not confirmed their email yet.
func (h *HTTPHandler) RequireConfirmed() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authz.UserOf(CurrentActor(c))
		if !ok {
			Unauthorized(c, "authentication required")
			return
		}
		if !user.Confirmed {
			ErrorResponse(c, http.StatusForbidden, ErrCodeUnconfirmed, "please confirm your account first")
			return
		}
		c.Next()
	}
}

// RequirePermission 权限位守卫中间件
func (h *HTTPHandler) RequirePermission(perm db.Permission) gin.HandlerFunc {
	names := perm.Names()
	action := "permission"
	if len(names) == 1 {
		action = names[0]
	}
	return func(c *gin.Context) {
		if err := authz.Require(CurrentActor(c), perm, action); err != nil {
			if errors.Is(err, authz.ErrAccessDenied) {
				h.metrics.AuthzDenied(action)
			}
			RespondError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentActor 从上下文获取当前身份，缺省为 Anonymous
func CurrentActor(c *gin.Context) authz.Actor {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return authz.Anonymous{}
	}
	actor, ok := value.(authz.Actor)
	if !ok {
		return authz.Anonymous{}
	}
	return actor
}
