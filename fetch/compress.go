package fetch

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is a transport encoding recognised from a document's extension.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = ".gz"
	CompressionZstd Compression = ".zst"
)

var (
	zstdOnce    sync.Once
	zstdDecoder *zstd.Decoder
	errZstd     error
)

// SplitCompression strips a trailing .gz or .zst from a URL path and returns
// the remaining path with the compression it named.
func SplitCompression(rawPath string) (string, Compression) {
	clean := rawPath
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}

	lower := strings.ToLower(clean)
	for _, c := range []Compression{CompressionGzip, CompressionZstd} {
		if strings.HasSuffix(lower, string(c)) {
			return clean[:len(clean)-len(c)], c
		}
	}
	return rawPath, CompressionNone
}

// Decompress undoes c on data.
func Decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening gzip document: %w", err)
		}
		defer zr.Close()

		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("reading gzip document: %w", err)
		}
		return out, nil

	case CompressionZstd:
		zstdOnce.Do(func() {
			zstdDecoder, errZstd = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		})
		if errZstd != nil {
			return nil, errZstd
		}

		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("reading zstd document: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}
