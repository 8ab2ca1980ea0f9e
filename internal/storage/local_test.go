package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_Lifecycle(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStorage(root, "/media/")
	require.NoError(t, err)

	const key = "report_files/q1.pdf"

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, key, strings.NewReader("%PDF-1.4"), "application/pdf"))

	data, err := os.ReadFile(filepath.Join(root, "report_files", "q1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4", string(got))

	assert.Equal(t, "/media/report_files/q1.pdf", s.URL(key))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "deleting twice is fine")

	_, err = s.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStorage_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "a.txt", strings.NewReader("one"), ""))
	require.NoError(t, s.Save(ctx, "a.txt", strings.NewReader("two"), ""))

	rc, err := s.Open(ctx, "a.txt")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(got))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	err = s.Save(ctx, "../escape.txt", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = s.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestLocalStorage_FailedWriteLeavesNothing(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStorage(root, "/media")
	require.NoError(t, err)

	err = s.Save(ctx, "report_files/broken.pdf", failingReader{}, "")
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "report_files"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
