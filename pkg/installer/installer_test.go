package installer

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rezkam/allyas/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliases = "# allyas: personal shell aliases\nalias ll='ls -la'\n"

func setupSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "allyas.sh"), []byte(aliases), 0600))
	return dir
}

func TestInstall(t *testing.T) {
	src := setupSource(t)
	etc := filepath.Join(t.TempDir(), "etc")
	inst := New(etc)

	dst, err := inst.Install(src, "allyas.sh")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(etc, "allyas.sh"), dst)

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, aliases, string(content))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	// Installing again overwrites in place.
	require.NoError(t, os.WriteFile(filepath.Join(src, "allyas.sh"), []byte("# allyas v2\n"), 0600))
	_, err = inst.Install(src, "allyas.sh")
	require.NoError(t, err)
	content, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "# allyas v2\n", string(content))
}

func TestInstall_MissingSource(t *testing.T) {
	etc := filepath.Join(t.TempDir(), "etc")
	_, err := New(etc).Install(t.TempDir(), "allyas.sh")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))

	_, statErr := os.Stat(etc)
	assert.True(t, os.IsNotExist(statErr), "nothing is created when the source is missing")
}

func TestUninstall(t *testing.T) {
	etc := t.TempDir()
	inst := New(etc)
	_, err := inst.Install(setupSource(t), "allyas.sh")
	require.NoError(t, err)

	removed, err := inst.Uninstall("allyas.sh")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(etc, "allyas.sh"), removed)

	_, err = inst.Uninstall("allyas.sh")
	assert.True(t, stderrors.Is(err, errors.ErrNotInstalled))
}

func TestLocateSource(t *testing.T) {
	t.Run("root", func(t *testing.T) {
		dir := setupSource(t)
		got, err := LocateSource(dir, "allyas.sh")
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("single top-level directory", func(t *testing.T) {
		dir := t.TempDir()
		nested := filepath.Join(dir, "allyas-0.0.2")
		require.NoError(t, os.MkdirAll(nested, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(nested, "allyas.sh"), []byte(aliases), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pax_global_header"), []byte("x"), 0644))

		got, err := LocateSource(dir, "allyas.sh")
		require.NoError(t, err)
		assert.Equal(t, nested, got)
	})

	t.Run("ambiguous layout", func(t *testing.T) {
		dir := t.TempDir()
		for _, d := range []string{"a", "b"} {
			require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, d, "allyas.sh"), []byte(aliases), 0644))
		}
		_, err := LocateSource(dir, "allyas.sh")
		assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LocateSource(t.TempDir(), "allyas.sh")
		assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
	})
}
