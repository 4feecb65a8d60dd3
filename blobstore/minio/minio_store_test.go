package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/matdisco/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	s := NewStore(nil, "b", "root/")
	assert.Equal(t, "root/runs/a.csv", s.key("runs/a.csv"))
	assert.Equal(t, "root", s.key(""))
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	ctx := context.Background()
	store, err := Dial(ctx, Config{
		Endpoint:     endpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "test-matdisco",
		Prefix:       "test-prefix/",
		CreateBucket: true,
	})
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "runs/r1/test.txt", data))

	blob, err := store.Open(ctx, "runs/r1/test.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	part := make([]byte, 5)
	n, err := blob.ReadAt(part, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "minio", string(part))

	n, err = blob.ReadAt(make([]byte, 10), int64(len(data))-2)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, blob.Close())

	got, err := blobstore.ReadAll(ctx, store, "runs/r1/test.txt")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Contains(t, names, "runs/r1/test.txt")

	require.NoError(t, store.Delete(ctx, "runs/r1/test.txt"))
	require.NoError(t, store.Delete(ctx, "runs/r1/test.txt"))

	_, err = store.Open(ctx, "runs/r1/test.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
