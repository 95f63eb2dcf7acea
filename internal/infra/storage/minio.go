package storage

import (
	"context"
	"log"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const transientPrefix = "transient/"

// Store hosts transient copies of uploaded images so a remote model can
// fetch them by presigned URL. Nothing stays after release.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	expiry     time.Duration
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, expiry time.Duration) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &Store{client: cli, bucketName: bucket, region: region, expiry: expiry}, nil
}

// Reference uploads the file at localPath and returns a presigned GET URL.
// release deletes the object; it is safe to call more than once.
func (s *Store) Reference(ctx context.Context, localPath string) (string, func(), error) {
	key := objectKey(localPath)

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(localPath); err == nil {
		contentType = mt.String()
	}

	_, err := s.client.FPutObject(ctx, s.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", func() {}, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// context terpisah, request bisa sudah dibatalkan
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
				log.Printf("Warning: failed to remove transient object %s/%s: %v", s.bucketName, key, err)
			}
		})
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.expiry, nil)
	if err != nil {
		release()
		return "", func() {}, err
	}
	return u.String(), release, nil
}

// Check reports whether the bucket is reachable; used by /healthz.
func (s *Store) Check(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func (s *Store) Bucket() string { return s.bucketName }

func objectKey(localPath string) string {
	base := filepath.Base(localPath)
	if base == "." || base == string(filepath.Separator) {
		base = uuid.NewString()
	}
	return path.Join(transientPrefix, base)
}
