// Package compress implements pixveil's payload compression strategies:
// Brotli, Gzip, and None.
package compress

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/slippyex/pixveil/pkg/trace"
)

// Strategy identifies a compression algorithm, framed as a single wire
// byte in the distribution map.
type Strategy byte

const (
	// None stores the payload uncompressed.
	None Strategy = iota
	// Gzip compresses with compress/gzip.
	Gzip
	// Brotli compresses with andybalholm/brotli. The distribution-map blob
	// itself always uses this strategy.
	Brotli
)

func (s Strategy) String() string {
	switch s {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Brotli:
		return "brotli"
	default:
		return "unknown"
	}
}

// ForFilename picks a compression strategy heuristically from a secret
// file's extension: already-compressed archive formats and media
// containers are stored raw rather than re-compressed; everything else
// gets Brotli.
func ForFilename(name string) Strategy {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip", ".tar", ".gz", ".rar", ".7z", ".bz2", ".xz", ".tgz", ".zst", ".lz", ".lz4", ".cab",
		".jpg", ".jpeg", ".png", ".gif", ".webp", ".br", ".mp3", ".mp4", ".mkv":
		return None
	default:
		return Brotli
	}
}

// Compress applies strategy to data.
func Compress(ctx context.Context, strategy Strategy, data []byte) ([]byte, error) {
	log := trace.FromContext(ctx).WithPrefix("COMPRESS")
	log.Debugf("compressing %d bytes with %s", len(data), strategy)

	switch strategy {
	case None:
		return data, nil
	case Gzip:
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(data); err != nil {
			return nil, fmt.Errorf("compress: gzip write: %w", err)
		}
		if err := gw.Close(); err != nil {
			return nil, fmt.Errorf("compress: gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case Brotli:
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		if _, err := bw.Write(data); err != nil {
			return nil, fmt.Errorf("compress: brotli write: %w", err)
		}
		if err := bw.Close(); err != nil {
			return nil, fmt.Errorf("compress: brotli close: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("compress: unknown strategy %d", strategy)
	}
}

// Decompress reverses Compress for the given strategy.
func Decompress(ctx context.Context, strategy Strategy, data []byte) ([]byte, error) {
	log := trace.FromContext(ctx).WithPrefix("DECOMPRESS")
	log.Debugf("decompressing %d bytes with %s", len(data), strategy)

	switch strategy {
	case None:
		return data, nil
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decompress: gzip reader: %w", err)
		}
		defer gr.Close()
		out, err := io.ReadAll(gr)
		if err != nil {
			return nil, fmt.Errorf("decompress: gzip read: %w", err)
		}
		return out, nil
	case Brotli:
		br := brotli.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("decompress: brotli read: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("decompress: unknown strategy %d", strategy)
	}
}
