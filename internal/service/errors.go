package service

import (
	"errors"
	"sort"
	"strings"

	"devforum/internal/authz"
	"devforum/internal/metrics"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrIntegrityConflict is a unique constraint hit at commit time. The
	// whole operation has been rolled back.
	ErrIntegrityConflict = errors.New("could not save changes, please try again")
	// ErrTokenInvalid does not distinguish expired from forged tokens.
	ErrTokenInvalid       = errors.New("the link is invalid or has expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError carries field level messages keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Err returns nil when no field failed.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, message string) error {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// translate maps repository errors onto the service taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrIntegrityConflict
	default:
		return err
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// denied counts gate failures before returning them unchanged.
func denied(m *metrics.Metrics, err error) error {
	var de *authz.DeniedError
	if errors.As(err, &de) {
		m.AuthzDenied(de.Action)
	}
	return err
}
