package s3

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/matdisco/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := t.Context()
	prefix := fmt.Sprintf("test-matdisco-%d/", time.Now().UnixNano())
	store, err := New(ctx, bucket, WithPrefix(prefix))
	require.NoError(t, err)

	t.Run("PutAndRead", func(t *testing.T) {
		name := "runs/r1/snapshot-0000.csv"
		data := []byte("formula,target\nNaCl,1\n")
		require.NoError(t, store.Put(ctx, name, data))

		blobs, err := store.List(ctx, "runs/")
		require.NoError(t, err)
		assert.Contains(t, blobs, name)

		got, err := blobstore.ReadAll(ctx, store, name)
		require.NoError(t, err)
		assert.Equal(t, data, got)

		require.NoError(t, store.Delete(ctx, name))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "nonexistent")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
