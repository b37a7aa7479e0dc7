package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestPrepareWorkdir(t *testing.T) {
	is := is.New(t)
	root := t.TempDir()

	dir, err := PrepareWorkdir(root, 5)
	is.NoErr(err)
	is.Equal(dir, filepath.Join(root, "trial-5"))

	is.NoErr(os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	is.NoErr(os.WriteFile(filepath.Join(dir, "nested", "old.dat"), []byte("x"), 0o644))

	dir2, err := PrepareWorkdir(root, 5)
	is.NoErr(err)
	is.Equal(dir, dir2)
	entries, err := os.ReadDir(dir2)
	is.NoErr(err)
	is.Equal(len(entries), 0)
}

func TestPrepareWorkdirDistinctIDs(t *testing.T) {
	is := is.New(t)
	root := t.TempDir()
	a, err := PrepareWorkdir(root, 1)
	is.NoErr(err)
	b, err := PrepareWorkdir(root, 11)
	is.NoErr(err)
	is.True(a != b)
	is.NoErr(os.WriteFile(filepath.Join(a, "keep"), nil, 0o644))

	_, err = PrepareWorkdir(root, 11)
	is.NoErr(err)
	_, err = os.Stat(filepath.Join(a, "keep"))
	is.NoErr(err) // other trials are untouched
}

func TestPrepareWorkdirErrors(t *testing.T) {
	is := is.New(t)
	root := t.TempDir()

	_, err := PrepareWorkdir(root, -3)
	is.True(errors.Is(err, ErrNegativeTrialID))

	// The root is a regular file, so the trial directory cannot be created.
	file := filepath.Join(root, "not-a-dir")
	is.NoErr(os.WriteFile(file, nil, 0o644))
	_, err = PrepareWorkdir(file, 0)
	is.True(err != nil)
}
