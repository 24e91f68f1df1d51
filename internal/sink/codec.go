package sink

import (
	"compress/gzip"
	"io"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// Codec describes a transparent compression format selected by suffix.
type Codec struct {
	// Name is a short identifier used in logs and errors.
	Name string
	// Suffix is the final filename extension that selects this codec.
	Suffix string
	// NewWriter wraps w in a compressing writer. Closing the returned writer
	// finalizes the stream trailer but does not close w.
	NewWriter func(w io.Writer) (io.WriteCloser, error)
}

// Plain is the name reported for uncompressed sinks.
const Plain = "plain"

var codecs = []Codec{
	{
		Name:   "gzip",
		Suffix: ".gz",
		NewWriter: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
	},
	{
		Name:   "bzip2",
		Suffix: ".bz2",
		NewWriter: func(w io.Writer) (io.WriteCloser, error) {
			return bzip2.NewWriter(w, nil)
		},
	},
	{
		Name:   "xz",
		Suffix: ".xz",
		NewWriter: func(w io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(w)
		},
	},
}

// Codecs returns the supported compression codecs.
func Codecs() []Codec {
	out := make([]Codec, len(codecs))
	copy(out, codecs)
	return out
}

// CodecFor returns the codec selected by the final suffix of path.
// Matching is case-sensitive; any other suffix means plain text.
func CodecFor(path string) (Codec, bool) {
	ext := filepath.Ext(path)
	for _, c := range codecs {
		if c.Suffix == ext {
			return c, true
		}
	}
	return Codec{}, false
}

// flusher is implemented by codecs that can push pending output to the
// underlying writer without ending the stream (gzip does, bzip2 and xz do not).
type flusher interface {
	Flush() error
}
