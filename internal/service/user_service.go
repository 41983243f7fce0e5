package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"devforum/internal/auth"
	"devforum/internal/authz"
	"devforum/internal/config"
	"devforum/internal/entity/common"
	"devforum/internal/entity/converter"
	"devforum/internal/entity/db"
	"devforum/internal/entity/dto"
	"devforum/internal/metrics"
	"devforum/internal/model"
	"devforum/internal/notify"
	"devforum/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxAvatarBytes bounds an uploaded profile picture.
const MaxAvatarBytes = 2 << 20

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// UserService 处理账户注册、登录、确认、密码重置以及管理员对用户的维护。
type UserService struct {
	cfg        config.Config
	repo       model.Repository
	sessions   *auth.Manager
	tokens     *auth.TokenCodec
	storage    storage.Storage
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics
}

// NewUserService 创建用户服务实例
func NewUserService(cfg config.Config, repo model.Repository, sessions *auth.Manager, tokens *auth.TokenCodec,
	store storage.Storage, dispatcher notify.Dispatcher, m *metrics.Metrics) *UserService {
	return &UserService{
		cfg:        cfg,
		repo:       repo,
		sessions:   sessions,
		tokens:     tokens,
		storage:    store,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unconfirmed account. The role is resolved here, once:
// the configured admin address gets Administrator, everyone else the
// current default role.
func (s *UserService) Register(ctx context.Context, req dto.RegisterRequest) (*db.User, error) {
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)

	verr := &ValidationError{}
	if username == "" {
		verr.Add("username", "username is required")
	}
	if email == "" {
		verr.Add("email", "email is required")
	}
	if req.Password == "" {
		verr.Add("password", "password is required")
	} else if req.Password != req.ConfirmPassword {
		verr.Add("confirm_password", "passwords must match")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, 0, username, email, verr); err != nil {
		return nil, err
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	role, err := s.resolveRole(ctx, email)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &db.User{
		Username:     username,
		Email:        email,
		Country:      strings.TrimSpace(req.Country),
		ImageFile:    db.DefaultImageFile,
		PasswordHash: &hash,
		RoleID:       role.ID,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, translate(err)
	}
	s.metrics.Registered()
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": role.Name}).Info("user registered")

	s.sendConfirmation(ctx, user)
	notify.Submit(ctx, s.dispatcher, notify.NewSubscribeMessage(notify.Subscription{
		List:    s.cfg.MailingListMembers,
		Address: user.Email,
		Name:    user.Username,
	}))
	return user, nil
}

func (s *UserService) resolveRole(ctx context.Context, email string) (*db.Role, error) {
	if s.cfg.AdminEmail != "" && email == normalizeEmail(s.cfg.AdminEmail) {
		role, err := s.repo.GetRoleByName(ctx, db.RoleAdministrator)
		if err != nil {
			return nil, fmt.Errorf("load administrator role: %w", err)
		}
		return role, nil
	}
	role, err := s.repo.GetDefaultRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("load default role: %w", err)
	}
	return role, nil
}

// checkUnique records a field error for a username or email owned by
// someone other than selfID.
func (s *UserService) checkUnique(ctx context.Context, selfID uint, username, email string, verr *ValidationError) error {
	if username != "" {
		existing, err := s.repo.GetUserByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != selfID:
			verr.Add("username", "That username is taken. Please choose a different one.")
		case err != nil && !isNotFound(err):
			return err
		}
	}
	if email != "" {
		existing, err := s.repo.GetUserByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != selfID:
			verr.Add("email", "That email is taken. Please choose a different one.")
		case err != nil && !isNotFound(err):
			return err
		}
	}
	return nil
}

// Login verifies the password and issues a session token.
func (s *UserService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckUserPassword(user, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.sessions.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      converter.UserToSummary(user),
	}, nil
}

// GenerateConfirmationToken signs the user's id in the confirmation namespace.
func (s *UserService) GenerateConfirmationToken(user *db.User, ttl time.Duration) (string, error) {
	return s.tokens.Encode(auth.PurposeConfirm, user.ID, ttl)
}

// GetResetToken signs the user's id in the reset namespace.
func (s *UserService) GetResetToken(user *db.User, ttl time.Duration) (string, error) {
	return s.tokens.Encode(auth.PurposeReset, user.ID, ttl)
}

// Confirm marks the actor confirmed when token was issued for that same
// account. Any failure leaves the account untouched.
func (s *UserService) Confirm(ctx context.Context, actor authz.Actor, token string) error {
	user, err := authz.RequireAuthenticated(actor)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return nil
	}
	id, err := s.tokens.Decode(auth.PurposeConfirm, token)
	if err != nil || id != user.ID {
		return ErrTokenInvalid
	}
	if err := s.repo.UpdateUser(ctx, user.ID, map[string]interface{}{"confirmed": true}); err != nil {
		return translate(err)
	}
	user.Confirmed = true
	return nil
}

// ResendConfirmation queues a new confirmation mail for an unconfirmed actor.
func (s *UserService) ResendConfirmation(ctx context.Context, actor authz.Actor) error {
	user, err := authz.RequireAuthenticated(actor)
	if err != nil {
		return err
	}
	if !user.Confirmed {
		s.sendConfirmation(ctx, user)
	}
	return nil
}

// RequestPasswordReset never reveals whether email belongs to an account.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	ttl := time.Duration(s.cfg.ResetTokenTTLSeconds) * time.Second
	token, err := s.GetResetToken(user, ttl)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	body, err := notify.RenderReset(notify.LinkMail{
		Username:  user.Username,
		Link:      s.link("/auth/reset/", token),
		ExpiresIn: formatTTL(ttl),
	})
	if err != nil {
		return err
	}
	notify.Submit(ctx, s.dispatcher, notify.NewEmailMessage(notify.Email{
		To:       []string{user.Email},
		Subject:  "Password Reset Request",
		HTMLBody: body,
	}))
	return nil
}

// VerifyResetToken returns the account a reset token was issued for.
func (s *UserService) VerifyResetToken(ctx context.Context, token string) (*db.User, error) {
	id, err := s.tokens.Decode(auth.PurposeReset, token)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ResetPassword(ctx context.Context, token string, req dto.ResetPasswordRequest) error {
	if req.Password == "" || req.Password != req.ConfirmPassword {
		return fieldError("confirm_password", "passwords must match")
	}
	user, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdateUser(ctx, user.ID, map[string]interface{}{"password_hash": hash}); err != nil {
		return translate(err)
	}
	logrus.WithField("user_id", user.ID).Info("password reset")
	return nil
}

// Current reloads the actor's account.
func (s *UserService) Current(ctx context.Context, actor authz.Actor) (*db.User, error) {
	if _, err := authz.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, actor.UserID())
	return user, translate(err)
}

// UpdateAccount edits the actor's own profile. Uniqueness is only checked
// for fields that actually change.
func (s *UserService) UpdateAccount(ctx context.Context, actor authz.Actor, req dto.AccountUpdateRequest) (*db.User, error) {
	user, err := authz.RequireAuthenticated(actor)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)

	verr := &ValidationError{}
	var checkName, checkEmail string
	if username != user.Username {
		checkName = username
	}
	if email != user.Email {
		checkEmail = email
	}
	if err := s.checkUnique(ctx, user.ID, checkName, checkEmail, verr); err != nil {
		return nil, err
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"username": username,
		"email":    email,
		"name":     strings.TrimSpace(req.Name),
		"country":  strings.TrimSpace(req.Country),
		"about_me": strings.TrimSpace(req.AboutMe),
	}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return nil, translate(err)
	}
	updated, err := s.repo.GetUserByID(ctx, user.ID)
	return updated, translate(err)
}

// UploadAvatar stores a JPEG or PNG picture and points the account at it.
// The previous picture is removed on a best-effort basis.
func (s *UserService) UploadAvatar(ctx context.Context, actor authz.Actor, data []byte) (*db.User, error) {
	user, err := authz.RequireAuthenticated(actor)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fieldError("picture", "picture is required")
	}
	if len(data) > MaxAvatarBytes {
		return nil, fieldError("picture", "picture is too large")
	}
	contentType := http.DetectContentType(data)
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, fieldError("picture", "only jpg and png pictures are allowed")
	}
	if s.storage == nil {
		return nil, errors.New("storage not configured")
	}

	key, err := s.storage.Save(ctx, data, storage.SaveOptions{
		Category:    "avatars",
		BaseName:    uuid.NewString(),
		Extension:   ext,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("save picture: %w", err)
	}
	url := storage.PublicURL(s.cfg.StoragePublicBaseURL, key)
	if err := s.repo.UpdateUser(ctx, user.ID, map[string]interface{}{"image_file": url}); err != nil {
		return nil, translate(err)
	}

	if oldKey, ok := storage.KeyFromURL(s.cfg.StoragePublicBaseURL, user.ImageFile); ok {
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			logrus.WithError(err).WithField("key", oldKey).Warn("failed to remove previous picture")
		}
	}
	updated, err := s.repo.GetUserByID(ctx, user.ID)
	return updated, translate(err)
}

// Profile returns a public profile with the user's posts, newest first.
func (s *UserService) Profile(ctx context.Context, username string, page int64) (*dto.UserProfileResponse, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, translate(err)
	}
	posts, meta, err := s.repo.ListPostsByAuthor(ctx, user.ID, common.BaseParams{Page: page, PageSize: int64(s.cfg.PostsPerPage)})
	if err != nil {
		return nil, err
	}
	return &dto.UserProfileResponse{
		User:  converter.UserToPublicSummary(user),
		Posts: converter.PostsToSummaries(posts),
		Meta:  meta,
	}, nil
}

func (s *UserService) ListUsers(ctx context.Context, actor authz.Actor, query dto.UserQuery) (*dto.UserListResponse, error) {
	if err := authz.CanAdminister(actor); err != nil {
		return nil, denied(s.metrics, err)
	}
	users, meta, err := s.repo.ListUsers(ctx, &query)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{Users: converter.UsersToSummaries(users), Meta: meta}, nil
}

func (s *UserService) ListRoles(ctx context.Context, actor authz.Actor) ([]dto.RoleSummary, error) {
	if err := authz.CanAdminister(actor); err != nil {
		return nil, denied(s.metrics, err)
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	return converter.RolesToSummaries(roles), nil
}

// AdminUpdateUser applies the admin profile editor. Only the fields present
// in req are written.
func (s *UserService) AdminUpdateUser(ctx context.Context, actor authz.Actor, id uint, req dto.AdminUserUpdateRequest) (*db.User, error) {
	if err := authz.CanAdminister(actor); err != nil {
		return nil, denied(s.metrics, err)
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	updates := map[string]interface{}{}
	verr := &ValidationError{}
	var checkName, checkEmail string
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			verr.Add("username", "username is required")
		} else if username != user.Username {
			checkName = username
			updates["username"] = username
		}
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			verr.Add("email", "email is required")
		} else if email != user.Email {
			checkEmail = email
			updates["email"] = email
		}
	}
	if err := s.checkUnique(ctx, user.ID, checkName, checkEmail, verr); err != nil {
		return nil, err
	}
	if req.RoleID != nil && *req.RoleID != user.RoleID {
		if _, err := s.repo.GetRoleByID(ctx, *req.RoleID); err != nil {
			if !isNotFound(err) {
				return nil, err
			}
			verr.Add("role_id", "unknown role")
		}
		updates["role_id"] = *req.RoleID
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	if req.Confirmed != nil {
		updates["confirmed"] = *req.Confirmed
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Country != nil {
		updates["country"] = strings.TrimSpace(*req.Country)
	}
	if req.AboutMe != nil {
		updates["about_me"] = strings.TrimSpace(*req.AboutMe)
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return nil, translate(err)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "admin_id": actor.UserID()}).Info("user updated by administrator")
	updated, err := s.repo.GetUserByID(ctx, user.ID)
	return updated, translate(err)
}

func (s *UserService) sendConfirmation(ctx context.Context, user *db.User) {
	ttl := time.Duration(s.cfg.ConfirmTokenTTLSeconds) * time.Second
	token, err := s.GenerateConfirmationToken(user, ttl)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to issue confirmation token")
		return
	}
	body, err := notify.RenderConfirmation(notify.LinkMail{
		Username:  user.Username,
		Link:      s.link("/auth/confirm/", token),
		ExpiresIn: formatTTL(ttl),
	})
	if err != nil {
		logrus.WithError(err).Error("failed to render confirmation mail")
		return
	}
	notify.Submit(ctx, s.dispatcher, notify.NewEmailMessage(notify.Email{
		To:       []string{user.Email},
		Subject:  "Confirm Your Account",
		HTMLBody: body,
	}))
}

func (s *UserService) link(path, token string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + path + token
}

func formatTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
