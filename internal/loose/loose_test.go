package loose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, name string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestRead(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, root, "shaders/a.fxb", []byte("plain"))
	write(t, root, "shaders/b.fxb.zst", compress(t, []byte("compressed")))
	write(t, root, "both.txt", []byte("plain wins"))
	write(t, root, "both.txt.zst", compress(t, []byte("ignored")))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))

	d, err := Open(root, 0)
	require.NoError(t, err)
	defer d.Close()

	tests := []struct {
		name string
		want string
		src  Source
		ok   bool
	}{
		{name: "shaders/a.fxb", want: "plain", src: SourcePlain, ok: true},
		{name: "shaders/b.fxb", want: "compressed", src: SourceCompressed, ok: true},
		{name: "both.txt", want: "plain wins", src: SourcePlain, ok: true},
		{name: "missing.txt"},
		{name: "dir"},
		{name: "../escape"},
		{name: "/abs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, src, ok, err := d.Read(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.ok, d.Exists(tt.name))
			if tt.ok {
				assert.Equal(t, tt.want, string(data))
				assert.Equal(t, tt.src, src)
			}
		})
	}
}

func TestDecoderReuse(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, root, "x.zst", compress(t, []byte("payload")))
	d, err := Open(root, 0)
	require.NoError(t, err)
	defer d.Close()

	for range 5 {
		data, _, ok, err := d.Read("x")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "payload", string(data))
	}
}

func TestMissingRoot(t *testing.T) {
	t.Parallel()

	d, err := Open(filepath.Join(t.TempDir(), "nope"), 0)
	require.NoError(t, err)
	defer d.Close()

	_, _, ok, err := d.Read("a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, d.Exists("a"))
}

func TestSizeLimit(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write(t, root, "big", make([]byte, 64))
	write(t, root, "big2.zst", compress(t, make([]byte, 64)))
	d, err := Open(root, 32)
	require.NoError(t, err)
	defer d.Close()

	_, _, ok, err := d.Read("big")
	assert.True(t, ok)
	require.ErrorIs(t, err, ErrTooLarge)

	_, _, ok, err = d.Read("big2")
	assert.True(t, ok)
	require.Error(t, err)
}
