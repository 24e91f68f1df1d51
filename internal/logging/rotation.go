package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/sink"
)

// compressedSuffix is appended to rotated backups when compression is on.
const compressedSuffix = ".gz"

var errLogClosed = errors.New("log file is closed")

// RotationConfig holds configuration for log rotation.
type RotationConfig struct {
	// MaxSizeMB is the size in megabytes at which the log is rotated.
	// Zero disables rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept, newest first.
	MaxBackups int
	// Compress gzips rotated backups.
	Compress bool
}

// DefaultRotationConfig returns 10MB files with three uncompressed backups.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingWriter appends to a diagnostic log file and moves it aside to
// path.1, path.2, ... once it would grow past the size limit. It is safe
// for concurrent use.
type RotatingWriter struct {
	mu sync.Mutex

	filePath   string
	maxSizeB   int64
	maxBackups int
	compress   bool

	file *os.File
	size int64
}

// NewRotatingWriter opens (or creates) filePath for appending.
func NewRotatingWriter(filePath string, config RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		filePath:   filePath,
		maxSizeB:   int64(config.MaxSizeMB) << 20,
		maxBackups: config.MaxBackups,
		compress:   config.Compress,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// open must be called with rw.mu held or before rw is shared.
func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.filePath), 0755); err != nil {
		return errors.Wrap(err, "creating log directory")
	}
	f, err := os.OpenFile(rw.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "opening log file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return errors.Wrap(err, "reading log file size")
	}
	rw.file, rw.size = f, info.Size()
	return nil
}

// Write appends p, rotating first when p would push the file past the
// limit. A failed rotation is reported on stderr and the write goes to
// the current file.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, errLogClosed
	}
	if rw.maxSizeB > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.maxSizeB {
		if err := rw.rotate(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "reportlog: log rotation failed: %v\n", err)
			if rw.file == nil {
				return 0, err
			}
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

func (rw *RotatingWriter) rotate() error {
	if err := rw.closeFile(); err != nil {
		return err
	}

	rw.shiftBackups()
	if rw.maxBackups > 0 {
		first := rw.backupPath(1)
		if err := os.Rename(rw.filePath, first); err != nil {
			return errors.Join(errors.Wrap(err, "moving log file aside"), rw.open())
		}
		if rw.compress {
			if err := compressFile(first); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "reportlog: %v\n", err)
			}
		}
	} else if err := os.Remove(rw.filePath); err != nil {
		return errors.Join(errors.Wrap(err, "removing full log file"), rw.open())
	}

	return rw.open()
}

// shiftBackups renames path.N to path.N+1 from the oldest down and drops
// the backup that would exceed maxBackups.
func (rw *RotatingWriter) shiftBackups() {
	for _, suffix := range []string{"", compressedSuffix} {
		_ = os.Remove(rw.backupPath(max(rw.maxBackups, 1)) + suffix)
	}
	for n := rw.maxBackups - 1; n >= 1; n-- {
		for _, suffix := range []string{compressedSuffix, ""} {
			from := rw.backupPath(n) + suffix
			if _, err := os.Stat(from); err == nil {
				_ = os.Rename(from, rw.backupPath(n+1)+suffix)
				break
			}
		}
	}
}

func (rw *RotatingWriter) backupPath(n int) string {
	return rw.filePath + "." + strconv.Itoa(n)
}

// compressFile writes path through the sink's gzip codec to path.gz and
// removes the original once the compressed copy is complete.
func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s for compression", path)
	}
	defer func() { _ = src.Close() }()

	gzPath := path + compressedSuffix
	dst, err := sink.Open(gzPath)
	if err != nil {
		return errors.Wrap(err, "creating compressed log backup")
	}
	_, copyErr := io.Copy(dst, src)
	if err := errors.Join(copyErr, dst.Close()); err != nil {
		_ = os.Remove(gzPath)
		return errors.Wrapf(err, "compressing %s", path)
	}
	return os.Remove(path)
}

func (rw *RotatingWriter) closeFile() error {
	f := rw.file
	rw.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "syncing log file")
	}
	return errors.Wrap(f.Close(), "closing log file")
}

// Sync commits the file to stable storage. It is a no-op after Close.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	return rw.file.Sync()
}

// Close syncs and closes the file. Closing twice is a no-op.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	return rw.closeFile()
}

// CurrentSize returns the size of the active file in bytes.
func (rw *RotatingWriter) CurrentSize() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// FilePath returns the active file's path.
func (rw *RotatingWriter) FilePath() string {
	return rw.filePath
}
