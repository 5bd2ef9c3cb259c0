package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear6io/iceberg-writer/iceberg/storage"
)

func TestNewRequiresRunningMinIOServer(t *testing.T) {
	t.Skip("Skipping MinIO storage tests - requires running MinIO/S3 server")

	_, err := New(context.Background(), Config{
		Endpoint:  "localhost:9000",
		Bucket:    "warehouse",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
}

func TestIsNoSuchKeyOnPlainError(t *testing.T) {
	require.False(t, isNoSuchKey(context.DeadlineExceeded))
}

var _ storage.Storage = (*Storage)(nil)
