package tabular

import (
	"fmt"
	"os"
	"syscall"
)

// lockFile acquires an exclusive flock on path, creating the file if needed,
// and returns the function that releases it. The lock is advisory: it guards
// against concurrent monitor processes sharing a data directory, not against
// other programs editing the table files directly.
func lockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
