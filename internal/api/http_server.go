package api

import (
	"net/http"
	"strconv"
	"strings"

	"devforum/internal/auth"
	"devforum/internal/entity/common"
	"devforum/internal/entity/db"
	"devforum/internal/metrics"
	"devforum/internal/model"
	"devforum/internal/service"

	"github.com/gin-gonic/gin"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	repo        model.Repository
	authManager *auth.Manager
	metrics     *metrics.Metrics

	// 服务层
	users *service.UserService
	posts *service.PostService
	site  *service.SiteService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(repo model.Repository, authManager *auth.Manager, users *service.UserService,
	posts *service.PostService, site *service.SiteService, m *metrics.Metrics) *HTTPHandler {
	return &HTTPHandler{
		repo:        repo,
		authManager: authManager,
		metrics:     m,
		users:       users,
		posts:       posts,
		site:        site,
	}
}

// Mount registers every API route on r and the JSON 404 fallback.
func (h *HTTPHandler) Mount(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.NoRoute(func(c *gin.Context) { NotFound(c, "page not found") })

	apiGroup := r.Group("/api")
	apiGroup.Use(h.IdentifyActor())

	apiGroup.GET("/home", h.Home)
	apiGroup.GET("/search", h.Search)
	apiGroup.GET("/tags", h.ListTags)
	apiGroup.GET("/tags/:slug/posts", h.PostsByTag)
	apiGroup.GET("/posts/:id", h.GetPost)
	apiGroup.GET("/posts/:id/comments", h.ListComments)
	apiGroup.GET("/users/:username", h.Profile)
	apiGroup.POST("/subscribe", h.Subscribe)
	apiGroup.POST("/contact", h.Contact)
	apiGroup.POST("/advertise", h.Advertise)

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/reset", h.RequestPasswordReset)
	authGroup.POST("/reset/:token", h.ResetPassword)
	authGroup.GET("/me", h.RequireAuth(), h.Me)
	authGroup.POST("/confirm", h.RequireAuth(), h.ResendConfirmation)
	authGroup.POST("/confirm/:token", h.RequireAuth(), h.Confirm)

	protected := apiGroup.Group("")
	protected.Use(h.RequireConfirmed())
	protected.PUT("/account", h.UpdateAccount)
	protected.POST("/account/picture", h.UploadAvatar)
	protected.POST("/posts", h.RequirePermission(db.PermissionWriteArticles), h.CreatePost)
	protected.PUT("/posts/:id", h.RequirePermission(db.PermissionWriteArticles), h.UpdatePost)
	protected.DELETE("/posts/:id", h.DeletePost)
	protected.POST("/posts/:id/comments", h.RequirePermission(db.PermissionComment), h.AddComment)

	moderate := protected.Group("/moderate")
	moderate.Use(h.RequirePermission(db.PermissionModerateComments))
	moderate.GET("", h.ModerationQueue)
	moderate.POST("/comments/:id/enable", h.EnableComment)
	moderate.POST("/comments/:id/disable", h.DisableComment)

	admin := protected.Group("/admin")
	admin.Use(h.RequirePermission(db.PermissionAdministrator))
	admin.GET("/users", h.ListUsers)
	admin.PATCH("/users/:id", h.AdminUpdateUser)
	admin.GET("/roles", h.ListRoles)
	admin.GET("/stats", h.Stats)
}

// pageParam reads ?page=, accepting -1 for the last page.
func pageParam(c *gin.Context) int64 {
	raw := strings.TrimSpace(c.Query("page"))
	if raw == "" {
		return 1
	}
	page, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || (page < 1 && page != common.LastPage) {
		return 1
	}
	return page
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		NotFound(c, "resource not found")
		return 0, false
	}
	return uint(id), true
}
