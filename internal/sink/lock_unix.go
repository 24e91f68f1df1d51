//go:build unix

package sink

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/reportlog/internal/errors"
)

// lockFile takes a non-blocking exclusive flock(2) on f. flock locks belong
// to the open file description, so a second Open in the same process
// conflicts just like one from another process.
func lockFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return errors.ErrSinkLocked
	}
	return err
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
