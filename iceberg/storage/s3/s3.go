// Package s3 implements the Storage collaborator against an S3-compatible
// object store using the MinIO SDK, bringing the teacher's placeholder
// MinIO filesystem to life.
package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gear6io/iceberg-writer/iceberg/storage"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeConnectFailed = ibxerrors.StorageCode("connect_failed")
var codeUploadFailed = ibxerrors.StorageCode("upload_failed")
var codeDownloadFailed = ibxerrors.StorageCode("download_failed")
var codeListFailed = ibxerrors.StorageCode("list_failed")
var codeDeleteFailed = ibxerrors.StorageCode("delete_failed")
var codeStatFailed = ibxerrors.StorageCode("stat_failed")
var codeBucketFailed = ibxerrors.StorageCode("bucket_failed")

// Config holds the connection parameters for an S3/MinIO endpoint.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Storage is an S3/MinIO-backed implementation of storage.Storage. Paths
// passed to its methods become object keys within Bucket.
type Storage struct {
	client *minio.Client
	bucket string
}

// New connects to the configured endpoint and ensures the target bucket
// exists, creating it if necessary.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, ibxerrors.New(codeConnectFailed, "failed to create minio client", err).AddContext("endpoint", cfg.Endpoint)
	}

	s := &Storage{client: client, bucket: cfg.Bucket}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

var _ storage.Storage = (*Storage)(nil)

func (s *Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return ibxerrors.New(codeBucketFailed, "failed to check bucket existence", err).AddContext("bucket", s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: ""}); err != nil {
		return ibxerrors.New(codeBucketFailed, "failed to create bucket", err).AddContext("bucket", s.bucket)
	}
	return nil
}

func (s *Storage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return ibxerrors.New(codeUploadFailed, "failed to upload object", err).AddContext("path", path)
	}
	return nil
}

func (s *Storage) Download(ctx context.Context, path string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, ibxerrors.New(codeDownloadFailed, "failed to open object", err).AddContext("path", path)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ibxerrors.New(storage.ErrNotFound, "object not found", err).AddContext("path", path)
		}
		return nil, ibxerrors.New(codeDownloadFailed, "failed to read object", err).AddContext("path", path)
	}
	return data, nil
}

func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, ibxerrors.New(codeListFailed, "failed to list objects", obj.Err).AddContext("prefix", prefix)
		}
		out = append(out, obj.Key)
	}
	return out, nil
}

func (s *Storage) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return ibxerrors.New(codeDeleteFailed, "failed to delete object", err).AddContext("path", path)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, ibxerrors.New(codeStatFailed, "failed to stat object", err).AddContext("path", path)
	}
	return true, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey"
}
