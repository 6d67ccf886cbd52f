// Package chunk splits an encrypted payload into variably-sized pieces
// for independent placement across carriers. Chunk sizes
// are jittered with the caller's entropy source so consecutive runs don't
// produce a visibly uniform chunk grid, while respecting the configured
// minimum for every chunk except possibly the last.
package chunk

import (
	"context"
	"fmt"

	"github.com/slippyex/pixveil/pkg/pverr"
	"github.com/slippyex/pixveil/pkg/rng"
)

// MinChunkSize is the smallest chunk the splitter will ever emit.
const MinChunkSize = 16

// Chunk is one contiguous slice of the encrypted payload, addressed by a
// sequential id used to derive its deterministic channel sequence.
type Chunk struct {
	ID   uint64
	Data []byte
}

// Split divides data into chunks no smaller than minSize (except
// possibly the final chunk) and no larger than maxSize, choosing each
// chunk's length via src so sizes vary. minSize must be >= MinChunkSize.
func Split(ctx context.Context, data []byte, minSize, maxSize int, src rng.Source) ([]Chunk, error) {
	if minSize < MinChunkSize {
		return nil, pverr.New(pverr.InvalidConfig, "chunk.Split",
			fmt.Errorf("minSize %d below MinChunkSize %d", minSize, MinChunkSize))
	}
	if maxSize < minSize {
		return nil, pverr.New(pverr.InvalidConfig, "chunk.Split",
			fmt.Errorf("maxSize %d below minSize %d", maxSize, minSize))
	}
	if len(data) == 0 {
		return nil, pverr.New(pverr.InvalidConfig, "chunk.Split", fmt.Errorf("empty payload"))
	}

	var chunks []Chunk
	var id uint64
	offset := 0
	span := maxSize - minSize

	for offset < len(data) {
		remaining := len(data) - offset
		size := minSize
		if remaining > minSize {
			if span > 0 {
				var b [4]byte
				if _, err := src.Read(ctx, b[:]); err != nil {
					return nil, fmt.Errorf("chunk.Split: jitter read: %w", err)
				}
				jitter := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
				if jitter < 0 {
					jitter = -jitter
				}
				size = minSize + jitter%(span+1)
			}
			if size > remaining {
				size = remaining
			}
		} else {
			size = remaining
		}

		chunks = append(chunks, Chunk{ID: id, Data: data[offset : offset+size]})
		offset += size
		id++
	}
	return chunks, nil
}
