package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressors(t *testing.T) {
	payload := []byte(strings.Repeat("| a | b |\n|---|---|\n| 1 | 2 |\n", 64))

	for _, name := range []string{None, Gzip, Zstd} {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			if err != nil {
				t.Fatalf("New(%q) failed: %v", name, err)
			}

			packed, err := c.Compress(payload)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if name != None && len(packed) >= len(payload) {
				t.Errorf("Expected %s to shrink repetitive input, got %d >= %d", name, len(packed), len(payload))
			}

			unpacked, err := c.Decompress(packed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(unpacked, payload) {
				t.Error("Expected decompressed data to match input")
			}
		})
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("lz4"); err == nil {
		t.Error("Expected error for unknown compression")
	}
}

func TestGzipDecompressGarbage(t *testing.T) {
	if _, err := (GzipCompressor{}).Decompress([]byte("not gzip")); err == nil {
		t.Error("Expected error decompressing garbage")
	}
}
