package auth

import (
	"errors"
	"strings"

	"devforum/internal/entity/db"

	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = bcrypt.DefaultCost

// ErrPasswordMismatch covers a wrong password and accounts without one.
var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword 对明文密码进行哈希处理
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), defaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword 验证密码是否与存储的哈希值匹配
func VerifyPassword(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}

// CheckUserPassword verifies candidate against the user's stored hash.
// Externally provisioned accounts have no hash and never match.
func CheckUserPassword(user *db.User, candidate string) error {
	if !user.HasPassword() {
		return ErrPasswordMismatch
	}
	if err := VerifyPassword(*user.PasswordHash, candidate); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
