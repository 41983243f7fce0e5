package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var errEmptyPayload = errors.New("storage: empty payload")

// remoteObject 是远端后端共用的对象定位：bucket 内的前缀加上相对 key。
type remoteObject struct {
	prefix string
}

// newKey checks the upload and returns the relative key plus the full object name.
func (o remoteObject) newKey(ctx context.Context, data []byte, opts SaveOptions) (string, string, error) {
	if len(data) == 0 {
		return "", "", errEmptyPayload
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	key := buildObjectPath(opts.Category, opts.BaseName, opts.Extension)
	return key, joinPrefix(o.prefix, key), nil
}

func (o remoteObject) existingKey(key string) (string, error) {
	cleaned, ok := cleanKey(key)
	if !ok {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return joinPrefix(o.prefix, cleaned), nil
}

// credentialPair trims an id/secret pair and fails when either half is missing.
func credentialPair(backend, id, secret string) (string, string, error) {
	id, secret = strings.TrimSpace(id), strings.TrimSpace(secret)
	if id == "" || secret == "" {
		return "", "", fmt.Errorf("storage: missing %s credentials", backend)
	}
	return id, secret, nil
}

func required(backend, field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: missing %s %s", backend, field)
	}
	return value, nil
}
