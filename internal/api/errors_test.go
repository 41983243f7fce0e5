package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"devforum/internal/authz"
	"devforum/internal/service"

	"github.com/gin-gonic/gin"
)

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		status         int
		code           string
		message        string
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "BadRequest",
			status:         http.StatusBadRequest,
			code:           ErrCodeInvalidRequest,
			message:        "无效的请求",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
			expectedMsg:    "无效的请求",
		},
		{
			name:           "NotFound",
			status:         http.StatusNotFound,
			code:           ErrCodeNotFound,
			message:        "文章不存在",
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeNotFound,
			expectedMsg:    "文章不存在",
		},
		{
			name:           "InternalError",
			status:         http.StatusInternalServerError,
			code:           ErrCodeInternalError,
			message:        "服务器内部错误",
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
			expectedMsg:    "服务器内部错误",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ErrorResponse(c, tt.status, tt.code, tt.message)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}

			if response.Message != tt.expectedMsg {
				t.Errorf("expected message %s, got %s", tt.expectedMsg, response.Message)
			}
		})
	}
}

func TestMissingField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	MissingField(c, "picture")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var response APIError
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if response.Code != ErrCodeValidation {
		t.Errorf("expected code %s, got %s", ErrCodeValidation, response.Code)
	}

	if response.Details == nil {
		t.Error("expected details to be set")
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validation := &service.ValidationError{}
	validation.Add("username", "taken")

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"validation", validation, http.StatusBadRequest, ErrCodeValidation},
		{"not authenticated", authz.ErrNotAuthenticated, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"denied", &authz.DeniedError{Action: authz.ActionDeletePost, Reason: "not the author"}, http.StatusForbidden, ErrCodeForbidden},
		{"not found", fmt.Errorf("load: %w", service.ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"conflict", service.ErrIntegrityConflict, http.StatusConflict, ErrCodeConflict},
		{"token", service.ErrTokenInvalid, http.StatusBadRequest, ErrCodeTokenInvalid},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeInvalidCredentials},
		{"unexpected", errors.New("db exploded"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/test", nil)

			RespondError(c, tt.err)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}
			if tt.expectedStatus == http.StatusInternalServerError && response.Message == "db exploded" {
				t.Error("internal error detail leaked to client")
			}
		})
	}
}

func TestPageParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query    string
		expected int64
	}{
		{"", 1},
		{"page=3", 3},
		{"page=-1", -1},
		{"page=-5", 1},
		{"page=abc", 1},
		{"page=0", 1},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/home?"+tt.query, nil)
		if got := pageParam(c); got != tt.expected {
			t.Errorf("pageParam(%q) = %d, want %d", tt.query, got, tt.expected)
		}
	}
}
