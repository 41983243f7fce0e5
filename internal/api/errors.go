package api

import (
	"errors"
	"net/http"
	"strings"

	"devforum/internal/authz"
	"devforum/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest = "ERR_INVALID_REQUEST"
	ErrCodeValidation     = "ERR_VALIDATION"
	ErrCodeUnauthorized   = "ERR_UNAUTHORIZED"
	ErrCodeForbidden      = "ERR_FORBIDDEN"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeConflict       = "ERR_CONFLICT"
	ErrCodeInternalError  = "ERR_INTERNAL_ERROR"

	// 认证错误码
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeUnconfirmed        = "ERR_UNCONFIRMED"
	ErrCodeUserNotFound       = "ERR_USER_NOT_FOUND"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.AbortWithStatusJSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, "an unexpected error has occurred")
}

// InvalidPayload 无效的请求体。Field level binding failures are listed in details.
func InvalidPayload(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = "failed on " + fe.Tag()
		}
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeValidation, "invalid request payload", gin.H{"fields": fields})
		return
	}
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// RespondError maps service and authorization errors onto HTTP responses.
// Unknown errors are logged and answered with a generic 500.
func RespondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeValidation, "validation failed", gin.H{"fields": verr.Fields})
	case errors.Is(err, authz.ErrNotAuthenticated):
		Unauthorized(c, "authentication required")
	case errors.Is(err, authz.ErrAccessDenied):
		Forbidden(c, "you do not have permission to perform this action")
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "resource not found")
	case errors.Is(err, service.ErrIntegrityConflict):
		ErrorResponse(c, http.StatusConflict, ErrCodeConflict, service.ErrIntegrityConflict.Error())
	case errors.Is(err, service.ErrTokenInvalid):
		BadRequest(c, ErrCodeTokenInvalid, service.ErrTokenInvalid.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, service.ErrInvalidCredentials.Error())
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(requestIDContextKey),
		}).Error("request failed")
		InternalError(c)
	}
}
