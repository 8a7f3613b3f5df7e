package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/core"
)

func testStore(t *testing.T, store core.BlobStore) {
	ctx := context.Background()

	info, err := store.Put(ctx, "members/1/photo.png", strings.NewReader("first"), 5, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "members/1/photo.png", info.Key)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
	assert.NotEmpty(t, info.ETag)

	// overwrite
	_, err = store.Put(ctx, "members/1/photo.png", strings.NewReader("second"), 6, "image/jpeg")
	require.NoError(t, err)

	info, rc, err := store.Get(ctx, "members/1/photo.png")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.Equal(t, int64(6), info.Size)

	require.NoError(t, store.Delete(ctx, "members/1/photo.png"))
	_, _, err = store.Get(ctx, "members/1/photo.png")
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(store.Delete(ctx, "members/1/photo.png")))

	for _, key := range []string{"", "/etc/passwd", "../outside", "a/../../b"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), 1, "text/plain")
		assert.Equal(t, ErrInvalidKey, err, key)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	testStore(t, store)

	_, err := store.Put(context.Background(), "posts/1/cover.png", strings.NewReader("x"), 1, "image/png")
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/1/cover.png"}, store.Keys("posts/"))
	assert.Empty(t, store.Keys("members/"))
}

func TestFilesystemStore(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, store)
}

func TestOpen(t *testing.T) {
	conf := core.NewTestConfig()
	ctx := context.Background()

	conf.Blob.Driver = DriverMemory
	store, err := Open(ctx, conf)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	conf.Blob.Driver = DriverFilesystem
	conf.Blob.Root = t.TempDir()
	store, err = Open(ctx, conf)
	require.NoError(t, err)
	assert.IsType(t, &FilesystemStore{}, store)

	conf.Blob.Driver = DriverS3
	conf.Blob.S3Bucket = ""
	_, err = Open(ctx, conf)
	assert.Error(t, err)

	conf.Blob.Driver = "ftp"
	_, err = Open(ctx, conf)
	assert.EqualError(t, err, `unknown blob driver "ftp"`)
}
