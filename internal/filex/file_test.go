package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	fsys := afero.NewMemMapFs()

	require.NoError(t, EnsureDir(fsys, "/data/store"))

	fi, err := fsys.Stat("/data/store")
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_Idempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()

	require.NoError(t, EnsureDir(fsys, "store"))
	require.NoError(t, afero.WriteFile(fsys, "store/keep", []byte("x"), 0o600))
	require.NoError(t, EnsureDir(fsys, "store"))

	ok, err := afero.Exists(fsys, "store/keep")
	require.NoError(t, err)
	require.True(t, ok, "existing contents must survive")
}

func TestEnsureDir_FailsOnRegularFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "store", []byte("x"), 0o600))

	err := EnsureDir(fsys, "store")
	require.ErrorIs(t, err, ErrNotDirectory)
}

func TestEnsureDir_OsFs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	require.NoError(t, EnsureDir(afero.NewOsFs(), dir))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}
