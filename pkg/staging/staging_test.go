package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageAndRemove(t *testing.T) {
	root := t.TempDir()
	s := New(root, nil)

	f, err := s.Stage("classroom.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.Size)
	assert.Equal(t, "classroom.jpg", filepath.Base(f.Path))
	assert.True(t, strings.HasPrefix(f.Path, root))

	data, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory should be gone")

	assert.NoError(t, f.Remove())
}

func TestStageStripsDirectories(t *testing.T) {
	root := t.TempDir()
	s := New(root, nil)

	for _, name := range []string{"../../etc/passwd.png", `..\..\evil.png`} {
		f, err := s.Stage(name, strings.NewReader("x"))
		require.NoError(t, err)
		assert.Equal(t, root, filepath.Dir(filepath.Dir(f.Path)))
		require.NoError(t, f.Remove())
	}
}

func TestStageRejectsEmptyName(t *testing.T) {
	s := New(t.TempDir(), nil)
	for _, name := range []string{"", ".", ".."} {
		_, err := s.Stage(name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrEmptyName, name)
	}
}

func TestRemoveNilFile(t *testing.T) {
	var f *File
	assert.NoError(t, f.Remove())
}
