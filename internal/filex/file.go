package filex

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

// ErrNotDirectory is returned by EnsureDir when path exists but is not a directory.
var ErrNotDirectory = errors.New("path exists and is not a directory")

// EnsureDir creates dir (and parents) on fsys unless it already exists.
func EnsureDir(fsys afero.Fs, dir string) error {
	fi, err := fsys.Stat(dir)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
