package storage

import (
	"bytes"
	"context"
	"fmt"

	"devforum/internal/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type ossStorage struct {
	remoteObject
	bucket *oss.Bucket
}

// NewOSSStorage 创建阿里云 OSS 存储，头像以 public-read 上传。
func NewOSSStorage(cfg config.Config) (Storage, error) {
	endpoint, err := required("OSS", "endpoint", cfg.StorageOSSEndpoint)
	if err != nil {
		return nil, err
	}
	bucketName, err := required("OSS", "bucket", cfg.StorageOSSBucket)
	if err != nil {
		return nil, err
	}
	accessKey, secretKey, err := credentialPair("OSS", cfg.StorageOSSAccessKeyID, cfg.StorageOSSAccessKeySecret)
	if err != nil {
		return nil, err
	}

	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: open OSS bucket: %w", err)
	}
	return &ossStorage{
		remoteObject: remoteObject{prefix: trimPrefix(cfg.StorageOSSPrefix)},
		bucket:       bucket,
	}, nil
}

func (s *ossStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	key, objectName, err := s.newKey(ctx, data, opts)
	if err != nil {
		return "", err
	}
	err = s.bucket.PutObject(objectName, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType(contentTypeFor(opts)),
		oss.CacheControl(avatarCacheControl),
		oss.ObjectACL(oss.ACLPublicRead),
	)
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

// Delete removes key; OSS treats missing objects as success.
func (s *ossStorage) Delete(ctx context.Context, key string) error {
	objectName, err := s.existingKey(key)
	if err != nil {
		return err
	}
	if err := s.bucket.DeleteObject(objectName, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

var _ Storage = (*ossStorage)(nil)
