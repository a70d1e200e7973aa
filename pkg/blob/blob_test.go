package blob_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanadb/yanaq/pkg/blob"
)

func TestSaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	s := blob.NewFs(fsys)

	value, err := s.Save(ctx, "Note", "attachment", "Report.PDF", strings.NewReader("data"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(value, ".pdf"))

	ok, err := afero.Exists(fsys, "note/attachment/"+value)
	require.NoError(t, err)
	assert.True(t, ok)

	f, err := s.Open(ctx, "note", "attachment", value)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "data", string(data))

	require.NoError(t, s.Remove(ctx, "note", "attachment", value))
	ok, err = s.Exists("note", "attachment", value)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remove(ctx, "note", "attachment", value), "removing twice is fine")
}

func TestRejectsPaths(t *testing.T) {
	s := blob.NewFs(afero.NewMemMapFs())
	for _, value := range []string{"", ".", "..", "../etc/passwd", `a\b`, "a/b"} {
		err := s.Remove(context.Background(), "note", "attachment", value)
		assert.True(t, blob.IsInvalidNameErr(err), "value %q", value)
	}
}

func TestNewOnDisk(t *testing.T) {
	dir := t.TempDir()
	s := blob.New(dir)
	value, err := s.Save(context.Background(), "note", "attachment", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	ok, err := afero.Exists(afero.NewOsFs(), dir+"/note/attachment/"+value)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := blob.NewFs(afero.NewMemMapFs()).Remove(ctx, "note", "attachment", "a.txt")
	assert.ErrorIs(t, err, context.Canceled)
}
