package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName - name of the lock file inside the output directory
const LockFileName = ".livearchiver.lock"

// ErrAlreadyRunning - output directory is used by another instance
var ErrAlreadyRunning = errors.New("another instance is already recording into the output directory")

// LockOutputDir - makes sure that only one instance records into the directory.
// Returned function releases the lock.
func LockOutputDir(outputDir string) (func(), error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(outputDir, LockFileName))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !ok {
		return nil, ErrAlreadyRunning
	}

	return func() {
		lock.Unlock()
	}, nil
}
