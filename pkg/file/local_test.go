package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/file"
)

func TestLocalStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	storage, err := file.NewLocalStorage(dir, "/files")
	require.NoError(t, err)

	t.Run("put get exists delete", func(t *testing.T) {
		t.Parallel()

		url, err := storage.Put(ctx, "dev/sessions/gmail-chromium.json", []byte(`{"a":1}`), file.ContentTypeJSON)
		require.NoError(t, err)
		assert.Equal(t, "/files/dev/sessions/gmail-chromium.json", url)

		ok, err := storage.Exists(ctx, "dev/sessions/gmail-chromium.json")
		require.NoError(t, err)
		assert.True(t, ok)

		data, err := storage.Get(ctx, "dev/sessions/gmail-chromium.json")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))

		require.NoError(t, storage.Delete(ctx, "dev/sessions/gmail-chromium.json"))
		ok, err = storage.Exists(ctx, "dev/sessions/gmail-chromium.json")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("overwrite", func(t *testing.T) {
		t.Parallel()

		_, err := storage.Put(ctx, "overwrite/x.png", []byte("one"), file.ContentTypePNG)
		require.NoError(t, err)
		_, err = storage.Put(ctx, "overwrite/x.png", []byte("two"), file.ContentTypePNG)
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "overwrite", "x.png"))
		require.NoError(t, err)
		assert.Equal(t, "two", string(data))
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := storage.Get(ctx, "nope.json")
		assert.ErrorIs(t, err, file.ErrFileNotFound)

		ok, err := storage.Exists(ctx, "nope.json")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, storage.Delete(ctx, "nope.json"))
	})

	t.Run("traversal", func(t *testing.T) {
		t.Parallel()

		_, err := storage.Put(ctx, "../escape.txt", []byte("x"), "")
		assert.ErrorIs(t, err, file.ErrInvalidPath)

		_, err = storage.Get(ctx, "a/../../escape.txt")
		assert.ErrorIs(t, err, file.ErrInvalidPath)
	})
}

func TestNewLocalStorage_EmptyDir(t *testing.T) {
	t.Parallel()

	_, err := file.NewLocalStorage("", "")
	assert.ErrorIs(t, err, file.ErrInvalidConfig)
}

func TestNew(t *testing.T) {
	t.Parallel()

	storage, err := file.New(context.Background(), file.S3Config{LocalDir: t.TempDir(), LocalBaseURL: "/f/"})
	require.NoError(t, err)
	assert.IsType(t, &file.LocalStorage{}, storage)

	_, err = file.New(context.Background(), file.S3Config{})
	assert.ErrorIs(t, err, file.ErrInvalidConfig)
}
