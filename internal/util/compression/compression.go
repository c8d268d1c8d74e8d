// Package compression wraps the codecs used for stored document blobs.
package compression

import "fmt"

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

const (
	None = "none"
	Gzip = "gzip"
	Zstd = "zstd"
)

// NoopCompressor stores data as-is.
type NoopCompressor struct{}

func (NoopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

func New(name string) (Compressor, error) {
	switch name {
	case "", None:
		return NoopCompressor{}, nil
	case Gzip:
		return GzipCompressor{}, nil
	case Zstd:
		return ZstdCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}
