package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// StdinName is the input name that reads standard input.
const StdinName = "-"

// Open opens an input by name. "-" reads stdin; `.gz` and `.zst` files are
// decompressed transparently.
func Open(name string, stdin io.Reader) (io.ReadCloser, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("empty input name")
	}
	if trimmed == StdinName {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.NopCloser(stdin), nil
	}

	file, err := os.Open(trimmed)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(trimmed)) {
	case ".gz":
		zr, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, file}}, nil
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		rc := dec.IOReadCloser()
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, file}}, nil
	default:
		return file, nil
	}
}

// stackedCloser closes a decoder and the file under it.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
