// Package sink opens the destination stream for a report log.
//
// A sink is a line-buffered UTF-8 text stream over a file, optionally
// wrapped in a compression codec picked from the file suffix:
//
//	.gz   gzip
//	.bz2  bzip2
//	.xz   xz (LZMA2)
//
// Any other suffix yields a plain text file. The file is locked for the
// lifetime of the sink so that only one session writes to a given path.
package sink

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/text/encoding/unicode"

	"github.com/Iron-Ham/reportlog/internal/errors"
)

// Sink is an open, exclusively owned text stream. It is safe for
// concurrent use, though a log session only ever writes from one goroutine.
type Sink struct {
	mu sync.Mutex

	path  string
	codec string

	file *os.File
	comp io.WriteCloser // nil for plain files
	buf  *bufio.Writer
	text io.Writer // UTF-8 guard in front of buf
}

// Open creates any missing parent directories, then opens path for
// writing, truncating existing content once the file lock is held.
// The codec is chosen by CodecFor.
func Open(path string) (*Sink, error) {
	codec, compressed := CodecFor(path)
	name := Plain
	if compressed {
		name = codec.Name
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewSinkError("failed to create parent directory", err).WithPath(path)
		}
	}

	// O_TRUNC is deliberately absent: truncating before the lock is held
	// would clobber a file another session is still writing.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.NewSinkError("failed to open report log", err).WithPath(path)
	}
	if err := lockFile(file); err != nil {
		_ = file.Close()
		return nil, errors.NewSinkError("failed to lock report log", err).WithPath(path)
	}
	if err := file.Truncate(0); err != nil {
		_ = unlockFile(file)
		_ = file.Close()
		return nil, errors.NewSinkError("failed to truncate report log", err).WithPath(path)
	}

	s := &Sink{
		path:  path,
		codec: name,
		file:  file,
	}

	var dst io.Writer = file
	if compressed {
		comp, err := codec.NewWriter(file)
		if err != nil {
			_ = unlockFile(file)
			_ = file.Close()
			return nil, errors.NewSinkError("failed to initialize codec", err).WithPath(path).WithCodec(name)
		}
		s.comp = comp
		dst = comp
	}
	s.buf = bufio.NewWriter(dst)
	s.text = unicode.UTF8.NewEncoder().Writer(s.buf)

	return s, nil
}

// Path returns the destination path.
func (s *Sink) Path() string {
	return s.path
}

// Codec returns the codec name, or Plain.
func (s *Sink) Codec() string {
	return s.codec
}

// Write writes p to the stream. A write that contains a newline is
// flushed through the codec to the file before Write returns.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, errors.ErrSinkClosed
	}
	n, err := s.text.Write(p)
	if err != nil {
		return n, s.wrap("write failed", err)
	}
	if bytes.IndexByte(p, '\n') >= 0 {
		if err := s.flushLocked(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteString writes str to the stream with the same buffering as Write.
func (s *Sink) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Flush pushes buffered text through the codec to the file.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return errors.ErrSinkClosed
	}
	return s.flushLocked()
}

// flushLocked must be called with s.mu held.
func (s *Sink) flushLocked() error {
	if err := s.buf.Flush(); err != nil {
		return s.wrap("flush failed", err)
	}
	if f, ok := s.comp.(flusher); ok {
		if err := f.Flush(); err != nil {
			return s.wrap("codec flush failed", err)
		}
	}
	return nil
}

// Close flushes all buffered text, finalizes the compression trailer,
// releases the file lock and closes the file. Calling Close again is a
// no-op.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	var errs []error
	// The UTF-8 guard holds back an incomplete trailing sequence until EOF.
	if c, ok := s.text.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, s.wrap("flush failed", err))
		}
	}
	if err := s.buf.Flush(); err != nil {
		errs = append(errs, s.wrap("flush failed", err))
	}
	if s.comp != nil {
		if err := s.comp.Close(); err != nil {
			errs = append(errs, s.wrap("failed to finalize codec", err))
		}
	}
	if err := unlockFile(s.file); err != nil {
		errs = append(errs, s.wrap("failed to unlock report log", err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, s.wrap("failed to close report log", err))
	}
	s.file = nil
	s.comp = nil

	return errors.Join(errs...)
}

func (s *Sink) wrap(message string, err error) error {
	e := errors.NewSinkError(message, err).WithPath(s.path)
	if s.codec != Plain {
		e = e.WithCodec(s.codec)
	}
	return e
}

// String implements fmt.Stringer for log output.
func (s *Sink) String() string {
	return fmt.Sprintf("%s (%s)", s.path, s.codec)
}
