package atomicfile

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custlist/pkg/errors"
)

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestWriteFileReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "master.csv")

	require.NoError(t, WriteFile(path, writeString("first")))
	require.NoError(t, WriteFile(path, writeString("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may remain")
}

func TestStageFailureLeavesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.csv")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	boom := stderrors.New("boom")
	_, err := Stage(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStageThenDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")

	s, err := Stage(path, writeString("x"))
	require.NoError(t, err)
	assert.FileExists(t, s.TempPath())
	assert.NoFileExists(t, path)

	s.Discard()
	assert.NoFileExists(t, s.TempPath())
	assert.NoFileExists(t, path)
}

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "CustList.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("workbook"), 0o644))

	dst := filepath.Join(dir, "bak", "bak_CustList.xlsx")
	require.NoError(t, Copy(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(data))

	err = Copy(filepath.Join(dir, "missing.xlsx"), dst)
	assert.Error(t, err)
}

func TestReadOnlyDirectoryIsLocked(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.Mkdir(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := WriteFile(filepath.Join(dir, "master.csv"), writeString("x"))
	require.Error(t, err)
	assert.True(t, errors.IsLocked(err))
}

func TestRevertRemovesOnlyCreatedFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.csv")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	fresh, err := Stage(filepath.Join(dir, "fresh.csv"), writeString("new"))
	require.NoError(t, err)
	replaced, err := Stage(existing, writeString("new"))
	require.NoError(t, err)
	require.NoError(t, fresh.Commit())
	require.NoError(t, replaced.Commit())

	assert.True(t, fresh.Revert())
	assert.NoFileExists(t, fresh.Path)
	assert.False(t, fresh.Revert(), "second revert is a no-op")

	assert.False(t, replaced.Revert())
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
