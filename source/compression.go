package source

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// CompressionType identifies how an input file is compressed.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionGZ
	CompressionBZ2
	CompressionXZ
	CompressionZSTD
)

// String returns the name of the compression type.
func (c CompressionType) String() string {
	switch c {
	case CompressionGZ:
		return "gzip"
	case CompressionBZ2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// DetectCompression returns the compression type implied by the file extension.
func DetectCompression(path string) CompressionType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGZ
	case ".bz2":
		return CompressionBZ2
	case ".xz":
		return CompressionXZ
	case ".zst":
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

// NewDecompressReader wraps r with a decompressor for the given type.
// The returned close func releases decoder resources but not r itself.
func NewDecompressReader(r io.Reader, ct CompressionType) (io.Reader, func() error, error) {
	switch ct {
	case CompressionNone:
		return r, func() error { return nil }, nil

	case CompressionGZ:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, gz.Close, nil

	case CompressionBZ2:
		return bzip2.NewReader(r), func() error { return nil }, nil

	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, func() error { return nil }, nil

	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, func() error {
			dec.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression type: %v", ct)
	}
}
