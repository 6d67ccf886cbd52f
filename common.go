// Package pixveil hides a secret file across a set of PNG carrier images
// via least-significant-bit embedding, and recovers it again.
//
// This package is the public facade over the internal pipeline:
//   - pkg/pipeline drives the INIT→...→DONE encode/decode state machines
//   - pkg/placement, pkg/inject, pkg/extract, pkg/mapio implement the
//     capacity analysis, channel writes/reads, and distribution-map
//     embedding those state machines call into
//   - pkg/pvcrypto, pkg/compress, pkg/chunk implement the cryptographic,
//     compression, and splitting stages
//
// Encode and Decode are thin wrappers that translate this package's public
// config types to pkg/pipeline's and back.
package pixveil

import "github.com/slippyex/pixveil/pkg/compress"

// CompressionStrategy re-exports pkg/compress.Strategy so callers never
// need to import the internal package directly.
type CompressionStrategy = compress.Strategy

const (
	CompressionNone   = compress.None
	CompressionGzip   = compress.Gzip
	CompressionBrotli = compress.Brotli
)
