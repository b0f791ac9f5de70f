package mmarket

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/james-bowman/matview"
)

// Compression selects how loader input is decompressed.
type Compression int

const (
	// None reads the input as plain text.
	None Compression = 0
	// Gzip decompresses the input with gzip.
	Gzip Compression = 1
	// Auto sniffs the gzip magic bytes (1f 8b) and decompresses when they
	// are present.
	Auto Compression = -1
)

const defaultBufSize = 65536

// decompress wraps r according to the requested compression, buffering
// reads with the given size.
func decompress(r io.Reader, compression Compression, bufSize int) (io.Reader, error) {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	br := bufio.NewReaderSize(r, bufSize)

	switch compression {
	case None:
		return br, nil
	case Gzip:
		return gzip.NewReader(br)
	case Auto:
		magic, err := br.Peek(2)
		if err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
			return gzip.NewReader(br)
		}
		return br, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", matview.ErrUnsupported, compression)
	}
}

// withFile opens path and invokes fn with the decompressed stream.
func withFile(path string, compression Compression, bufSize int, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := decompress(f, compression, bufSize)
	if err != nil {
		return err
	}
	return fn(r)
}
