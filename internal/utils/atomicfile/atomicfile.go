// Package atomicfile writes files through a temporary sibling and a rename,
// so readers only ever see the old or the new content.
package atomicfile

import (
	"bufio"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/agentstation/custlist/pkg/constants"
	"github.com/agentstation/custlist/pkg/errors"
)

// Staged is content written to a temporary file, waiting to replace Path.
type Staged struct {
	Path    string
	temp    string
	created bool
}

// Stage writes content produced by write into a temporary file next to path.
// On failure nothing is left behind.
func Stage(path string, write func(w io.Writer) error) (*Staged, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, classify("create", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, classify("create", path, err)
	}
	temp := f.Name()

	buf := bufio.NewWriter(f)
	if err := write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(temp)
		return nil, err
	}
	if err := buf.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(temp)
		return nil, classify("write", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(temp)
		return nil, classify("sync", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(temp)
		return nil, classify("close", path, err)
	}
	_ = os.Chmod(temp, constants.FilePermissions)
	return &Staged{Path: path, temp: temp}, nil
}

// Commit swaps the staged content into place.
func (s *Staged) Commit() error {
	_, statErr := os.Lstat(s.Path)
	if err := os.Rename(s.temp, s.Path); err != nil {
		_ = os.Remove(s.temp)
		return classify("rename", s.Path, err)
	}
	s.created = stderrors.Is(statErr, fs.ErrNotExist)
	return nil
}

// Revert removes Path again when Commit created it. A file that existed
// before Commit is left with the new content and Revert reports false.
func (s *Staged) Revert() bool {
	if s == nil || !s.created {
		return false
	}
	if err := os.Remove(s.Path); err != nil {
		return false
	}
	s.created = false
	return true
}

// Discard removes the temporary file. It is safe after Commit.
func (s *Staged) Discard() {
	if s != nil {
		_ = os.Remove(s.temp)
	}
}

// TempPath returns the location of the staged content.
func (s *Staged) TempPath() string {
	return s.temp
}

// WriteFile stages then commits in one step.
func WriteFile(path string, write func(w io.Writer) error) error {
	s, err := Stage(path, write)
	if err != nil {
		return err
	}
	return s.Commit()
}

// Copy duplicates src into dst atomically.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return classify("read", src, err)
	}
	defer func() { _ = in.Close() }()

	return WriteFile(dst, func(w io.Writer) error {
		if _, err := io.Copy(w, in); err != nil {
			return errors.WrapIO("copy", src, err)
		}
		return nil
	})
}

// classify turns permission failures into LockedError, everything else into IOError.
func classify(op, path string, err error) error {
	if stderrors.Is(err, fs.ErrPermission) {
		return errors.NewLockedError(path, err)
	}
	return errors.WrapIO(op, path, err)
}
