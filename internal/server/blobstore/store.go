// Package blobstore keeps blob bytes on a filesystem rooted at one directory.
// A blob lives at "<id>" or "<id>.<ext>" and its location does not depend on
// which buckets reference it.
package blobstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/dmitrijs2005/bucketstore/internal/filex"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

var ErrNotFound = errors.New("blob not found")

const stagePrefix = ".staging-"

// Checksum returns the hex BLAKE3-256 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Path returns the location of a blob relative to the store root.
func Path(id uuid.UUID, ext string) string {
	if ext == "" {
		return id.String()
	}
	return id.String() + "." + ext
}

type Store struct {
	fs afero.Fs
}

// New wraps fsys, which is treated as the store root.
func New(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

// OpenDir creates root if needed and returns a store confined to it.
// It fails when root exists and is not a directory. Staging files left
// behind by an interrupted upload are removed.
func OpenDir(root string) (*Store, error) {
	osfs := afero.NewOsFs()
	if err := filex.EnsureDir(osfs, root); err != nil {
		return nil, err
	}
	s := New(afero.NewBasePathFs(osfs, root))
	if err := s.sweepStaging(); err != nil {
		return nil, err
	}
	return s, nil
}

// sweepStaging deletes every staging file in the root. It must not run
// while uploads are in flight.
func (s *Store) sweepStaging() error {
	infos, err := afero.ReadDir(s.fs, ".")
	if err != nil {
		return fmt.Errorf("list store root: %w", err)
	}
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasPrefix(fi.Name(), stagePrefix) {
			continue
		}
		if err := s.fs.Remove(fi.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale %s: %w", fi.Name(), err)
		}
	}
	return nil
}

// Staged is blob content written under a temporary name.
type Staged struct {
	fs   afero.Fs
	name string
	done bool
}

// Stage writes data to a temporary file inside the root. The bytes become
// visible as a blob only after Promote.
func (s *Store) Stage(ctx context.Context, data []byte) (*Staged, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := afero.TempFile(s.fs, ".", stagePrefix)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(name)
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(name)
		return nil, fmt.Errorf("sync staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(name)
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	return &Staged{fs: s.fs, name: name}, nil
}

// Promote renames the staged file to the blob's final path. The rename
// replaces an existing file with the same content address.
func (st *Staged) Promote(id uuid.UUID, ext string) error {
	if st.done {
		return errors.New("staged blob already settled")
	}
	if err := st.fs.Rename(st.name, Path(id, ext)); err != nil {
		return fmt.Errorf("promote %s: %w", Path(id, ext), err)
	}
	st.done = true
	return nil
}

// Discard removes the staged file. It is a no-op after Promote.
func (st *Staged) Discard() error {
	if st == nil || st.done {
		return nil
	}
	st.done = true
	if err := st.fs.Remove(st.name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("discard %s: %w", st.name, err)
	}
	return nil
}

// Blob is an open blob ready for streaming.
type Blob struct {
	io.ReadCloser
	Size int64
}

// Open returns the blob's bytes. ErrNotFound means the file is absent.
func (s *Store) Open(id uuid.UUID, ext string) (*Blob, error) {
	f, err := s.fs.Open(Path(id, ext))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat blob: %w", err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, ErrNotFound
	}

	return &Blob{ReadCloser: f, Size: fi.Size()}, nil
}

// Remove deletes a blob file. Removing an absent blob is not an error.
func (s *Store) Remove(id uuid.UUID, ext string) error {
	if err := s.fs.Remove(Path(id, ext)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}
