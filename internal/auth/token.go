package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPurpose separates token namespaces. A token issued for one purpose
// never verifies for another.
type TokenPurpose string

const (
	PurposeConfirm TokenPurpose = "confirm"
	PurposeReset   TokenPurpose = "reset"
)

// ErrInvalidToken is returned for every verification failure: bad
// signature, wrong purpose, malformed payload or expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenCodec issues and verifies signed, time-limited tokens that carry a
// user id.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenCodec(secret, issuer string) (*TokenCodec, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = "devforum"
	}
	return &TokenCodec{secret: []byte(trimmed), issuer: issuer, now: time.Now}, nil
}

// Encode signs userID for purpose, valid for ttl.
func (c *TokenCodec) Encode(purpose TokenPurpose, userID uint, ttl time.Duration) (string, error) {
	if c == nil {
		return "", errors.New("token codec is nil")
	}
	if userID == 0 {
		return "", errors.New("user id must not be zero")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    c.issuer,
		Audience:  jwt.ClaimStrings{string(purpose)},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies token for purpose and returns the user id it carries.
func (c *TokenCodec) Decode(purpose TokenPurpose, token string) (uint, error) {
	if c == nil || strings.TrimSpace(token) == "" {
		return 0, ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(purpose)),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	claims := &jwt.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}); err != nil {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
