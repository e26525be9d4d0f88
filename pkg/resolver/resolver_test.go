package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unfold-sh/preset/pkg/errors"
)

func TestResolve_LocalDirectory(t *testing.T) {
	dir := t.TempDir()

	result, err := Resolve(dir)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, dir, result.Path)
	assert.False(t, result.Temporary, "local directories are never temporary")
}

func TestResolve_RelativePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "my-preset"), 0755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	result, err := Resolve("my-preset")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, filepath.IsAbs(result.Path))
}

func TestResolve_MissingPath(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrResolve))
}

func TestResolve_FileIsNotADirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.js")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := Resolve(path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrResolve))
}
