package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"devforum/internal/auth"
	"devforum/internal/config"
	"devforum/internal/metrics"
	"devforum/internal/model"
	"devforum/internal/notify"
	"devforum/internal/service"
	"devforum/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
)

type discardDispatcher struct{}

func (discardDispatcher) Enqueue(context.Context, notify.Message) error { return nil }
func (discardDispatcher) Close(context.Context) error                  { return nil }

type testServer struct {
	router *gin.Engine
	repo   model.Repository
	users  *service.UserService
}

var serverSeq atomic.Int64

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%d?mode=memory&cache=shared", serverSeq.Add(1))
	repo, err := model.NewRepositoryFactory().Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	if err := model.SeedDefaultRoles(context.Background(), repo); err != nil {
		t.Fatalf("seed roles: %v", err)
	}

	cfg := config.Config{
		PublicBaseURL:          "http://forum.test",
		ConfirmTokenTTLSeconds: 3600,
		ResetTokenTTLSeconds:   1800,
		PostsPerPage:           7,
		CommentsPerPage:        4,
		MaxSearchResults:       50,
		StoragePublicBaseURL:   "/files",
	}
	sessions, err := auth.NewManager("session-secret", "devforum", time.Hour)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	tokens, err := auth.NewTokenCodec("token-secret", "devforum")
	if err != nil {
		t.Fatalf("token codec: %v", err)
	}
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	m := metrics.New()
	d := discardDispatcher{}
	users := service.NewUserService(cfg, repo, sessions, tokens, store, d, m)
	handler := NewHTTPHandler(repo, sessions, users, service.NewPostService(cfg, repo, m), service.NewSiteService(cfg, repo, d, m), m)

	r := gin.New()
	r.Use(RequestIDMiddleware(), MetricsMiddleware(m))
	handler.Mount(r)
	return &testServer{router: r, repo: repo, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers, confirms and logs in, returning a session token.
func (s *testServer) signup(t *testing.T, username string, confirm bool) string {
	t.Helper()
	email := username + "@example.com"
	w := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":         username,
		"email":            email,
		"country":          "Nigeria",
		"password":         "s3cret-pass",
		"confirm_password": "s3cret-pass",
	})
	expectStatus(t, w, http.StatusCreated)

	if confirm {
		user, err := s.repo.GetUserByEmail(context.Background(), email)
		if err != nil {
			t.Fatalf("load user: %v", err)
		}
		if err := s.repo.UpdateUser(context.Background(), user.ID, map[string]interface{}{"confirmed": true}); err != nil {
			t.Fatalf("confirm user: %v", err)
		}
	}

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "s3cret-pass"})
	expectStatus(t, w, http.StatusOK)
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	return resp.Token
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)
	var apiErr APIError
	decode(t, w, &apiErr)
	if apiErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, apiErr.Code)
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response: %v (%s)", err, w.Body.String())
	}
}

func TestConfirmationGatesPosting(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "amina", false)
	post := map[string]any{"title": "Hello", "content": "<p>hi</p>", "tags": []string{"go"}}

	w := s.do(t, http.MethodPost, "/api/posts", token, post)
	expectCode(t, w, http.StatusForbidden, ErrCodeUnconfirmed)

	w = s.do(t, http.MethodPost, "/api/auth/confirm/not-a-token", token, nil)
	expectCode(t, w, http.StatusBadRequest, ErrCodeTokenInvalid)

	user, err := s.repo.GetUserByEmail(context.Background(), "amina@example.com")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	confirmToken, err := s.users.GenerateConfirmationToken(user, time.Hour)
	if err != nil {
		t.Fatalf("confirmation token: %v", err)
	}
	w = s.do(t, http.MethodPost, "/api/auth/confirm/"+confirmToken, token, nil)
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodPost, "/api/posts", token, post)
	expectStatus(t, w, http.StatusCreated)
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	author := s.signup(t, "amina", true)
	other := s.signup(t, "bob", true)

	w := s.do(t, http.MethodPost, "/api/posts", "", map[string]any{"title": "x", "content": "y"})
	expectCode(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)

	w = s.do(t, http.MethodPost, "/api/posts", author, map[string]any{"title": "Hello", "content": "<p>hi</p>", "tags": []string{"Go"}})
	expectStatus(t, w, http.StatusCreated)
	var created struct {
		ID uint `json:"id"`
	}
	decode(t, w, &created)
	postPath := fmt.Sprintf("/api/posts/%d", created.ID)

	w = s.do(t, http.MethodPut, postPath, other, map[string]any{"title": "Mine now", "content": "x"})
	expectCode(t, w, http.StatusForbidden, ErrCodeForbidden)
	w = s.do(t, http.MethodDelete, postPath, other, nil)
	expectCode(t, w, http.StatusForbidden, ErrCodeForbidden)

	w = s.do(t, http.MethodPost, postPath+"/comments", other, map[string]string{"body": "nice *post*"})
	expectStatus(t, w, http.StatusCreated)

	w = s.do(t, http.MethodGet, postPath, "", nil)
	expectStatus(t, w, http.StatusOK)
	var detail struct {
		Post struct {
			Title string `json:"title"`
		} `json:"post"`
		Comments []struct {
			BodyHTML string `json:"body_html"`
		} `json:"comments"`
	}
	decode(t, w, &detail)
	if detail.Post.Title != "Hello" || len(detail.Comments) != 1 {
		t.Fatalf("unexpected detail %+v", detail)
	}

	w = s.do(t, http.MethodGet, "/api/tags/go/posts", "", nil)
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodGet, "/api/search?q=hi", "", nil)
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodDelete, postPath, author, nil)
	expectStatus(t, w, http.StatusNoContent)
	w = s.do(t, http.MethodGet, postPath, "", nil)
	expectCode(t, w, http.StatusNotFound, ErrCodeNotFound)
}

func TestPrivilegedRoutesRequirePermission(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "amina", true)

	for _, path := range []string{"/api/moderate", "/api/admin/users", "/api/admin/stats"} {
		w := s.do(t, http.MethodGet, path, token, nil)
		expectCode(t, w, http.StatusForbidden, ErrCodeForbidden)
		w = s.do(t, http.MethodGet, path, "", nil)
		expectCode(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
	}
}

func TestRoutingErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/does-not-exist", "", nil)
	expectCode(t, w, http.StatusNotFound, ErrCodeNotFound)

	w = s.do(t, http.MethodGet, "/api/posts/abc", "", nil)
	expectCode(t, w, http.StatusNotFound, ErrCodeNotFound)

	w = s.do(t, http.MethodGet, "/api/home", "forged.token.value", nil)
	expectCode(t, w, http.StatusUnauthorized, ErrCodeSessionExpired)

	w = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "a"})
	expectCode(t, w, http.StatusBadRequest, ErrCodeValidation)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "x"})
	expectCode(t, w, http.StatusUnauthorized, ErrCodeInvalidCredentials)

	w = s.do(t, http.MethodPost, "/api/auth/reset", "", map[string]string{"email": "ghost@example.com"})
	expectStatus(t, w, http.StatusAccepted)

	w = s.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestHomeListsPosts(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "amina", true)
	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPost, "/api/posts", token, map[string]any{"title": fmt.Sprintf("P%d", i), "content": "body"})
		expectStatus(t, w, http.StatusCreated)
	}

	w := s.do(t, http.MethodGet, "/api/home", "", nil)
	expectStatus(t, w, http.StatusOK)
	var home struct {
		Posts     []json.RawMessage `json:"posts"`
		UserCount int64             `json:"user_count"`
		PostCount int64             `json:"post_count"`
	}
	decode(t, w, &home)
	if len(home.Posts) != 3 || home.UserCount != 1 || home.PostCount != 3 {
		t.Fatalf("unexpected home %+v", home)
	}
}
