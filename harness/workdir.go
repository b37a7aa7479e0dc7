package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// TrialDir is the working directory of a trial under root. Distinct ids
// never share a directory.
func TrialDir(root string, id int) string {
	return filepath.Join(root, "trial-"+strconv.Itoa(id))
}

// PrepareWorkdir wipes and recreates the trial's directory so the runner
// always starts in an empty directory. The directory is left in place
// after the trial for postmortem inspection; the next trial with the same
// id removes it.
//
// Two callers preparing the same id concurrently race; that is not
// supported.
func PrepareWorkdir(root string, id int) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeTrialID, id)
	}
	dir := TrialDir(root, id)
	// RemoveAll already treats a missing path as success.
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("removing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}
