package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"devforum/internal/config"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type cosStorage struct {
	remoteObject
	client *cos.Client
}

// NewCOSStorage 创建腾讯云 COS 存储。
func NewCOSStorage(cfg config.Config) (Storage, error) {
	bucketURL, err := required("COS", "bucket URL", cfg.StorageCOSBucketURL)
	if err != nil {
		return nil, err
	}
	parsedURL, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse COS bucket URL: %w", err)
	}
	secretID, secretKey, err := credentialPair("COS", cfg.StorageCOSSecretID, cfg.StorageCOSSecretKey)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Transport: &cos.AuthorizationTransport{SecretID: secretID, SecretKey: secretKey}}
	return &cosStorage{
		remoteObject: remoteObject{prefix: trimPrefix(cfg.StorageCOSPrefix)},
		client:       cos.NewClient(&cos.BaseURL{BucketURL: parsedURL}, httpClient),
	}, nil
}

func (s *cosStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	key, objectName, err := s.newKey(ctx, data, opts)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Object.Put(ctx, objectName, bytes.NewReader(data), &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType:  contentTypeFor(opts),
			CacheControl: avatarCacheControl,
		},
	})
	closeBody(resp)
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

func (s *cosStorage) Delete(ctx context.Context, key string) error {
	objectName, err := s.existingKey(key)
	if err != nil {
		return err
	}
	resp, err := s.client.Object.Delete(ctx, objectName)
	closeBody(resp)
	if err != nil && !cos.IsNotFoundError(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func closeBody(resp *cos.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}

var _ Storage = (*cosStorage)(nil)
