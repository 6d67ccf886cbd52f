// Package placement implements the capacity-aware assignment of chunks to
// carriers and non-overlapping channel ranges, producing distribution-map
// entries. Carriers are tried in ascending tone priority and candidate
// start positions are probed with a bounded number of random attempts
// before an exhaustive fallback.
package placement

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/slippyex/pixveil/pkg/chunk"
	"github.com/slippyex/pixveil/pkg/distmap"
	"github.com/slippyex/pixveil/pkg/pverr"
	"github.com/slippyex/pixveil/pkg/pximage"
	"github.com/slippyex/pixveil/pkg/rng"
	"github.com/slippyex/pixveil/pkg/tone"
	"github.com/slippyex/pixveil/pkg/trace"
)

// DefaultMaxChunksPerPNG caps how many chunks one carrier may host.
const DefaultMaxChunksPerPNG = 16

// candidateAttempts bounds the number of random starting positions probed
// per carrier before the linear fallback scan.
const candidateAttempts = 64

// Carrier bundles a loaded image with its bitmap of used RGB channels and
// its tone priority, scoped to one placement run.
type Carrier struct {
	Name      string // basename, used as DistributionMapEntry.PNGFile
	Image     *pximage.Carrier
	bitmap    []bool // one entry per RGB channel position
	usedCnt   int    // number of chunks already assigned to this carrier
	priority  int
	lowStarts []int // channel positions of low-tone pixels' first channel
	midStarts []int // same, for mid-tone pixels
}

// NewCarrier wraps a loaded image for placement, with no channels marked
// used yet. It also buckets every pixel's first channel position by tone,
// so findRange can weight candidate probing toward low-tone regions first.
func NewCarrier(img *pximage.Carrier) *Carrier {
	c := &Carrier{
		Name:     filepath.Base(img.Path),
		Image:    img,
		bitmap:   make([]bool, img.ChannelCapacity()),
		priority: tone.Priority(tone.Average(img)),
	}
	pixelCount := img.Width() * img.Height()
	for idx := 0; idx < pixelCount; idx++ {
		switch tone.PixelTone(img, idx) {
		case tone.Low:
			c.lowStarts = append(c.lowStarts, idx*3)
		case tone.Mid:
			c.midStarts = append(c.midStarts, idx*3)
		}
	}
	return c
}

// ReserveMapPrefix marks the first mapPrefixLength channels as used, so
// payload placement can never collide with the embedded distribution map.
func (c *Carrier) ReserveMapPrefix(mapPrefixLength int) {
	for i := 0; i < mapPrefixLength && i < len(c.bitmap); i++ {
		c.bitmap[i] = true
	}
}

func (c *Carrier) rangeFree(start, length int) bool {
	if start < 0 || start+length > len(c.bitmap) {
		return false
	}
	for i := start; i < start+length; i++ {
		if c.bitmap[i] {
			return false
		}
	}
	return true
}

func (c *Carrier) markUsed(start, length int) {
	for i := start; i < start+length; i++ {
		c.bitmap[i] = true
	}
}

// Plan runs the placement algorithm over chunks and carriers, returning one
// distribution-map entry per chunk. src supplies candidate-start
// randomness.
func Plan(ctx context.Context, chunks []chunk.Chunk, carriers []*Carrier, maxChunksPerPNG int, bitsPerChannel uint8, src rng.Source) ([]distmap.Entry, error) {
	log := trace.FromContext(ctx).WithPrefix("PLACEMENT")
	if len(carriers) == 0 {
		return nil, pverr.New(pverr.InvalidConfig, "placement.Plan", fmt.Errorf("empty carrier list"))
	}

	sorted := make([]*Carrier, len(carriers))
	copy(sorted, carriers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority < sorted[j].priority })

	entries := make([]distmap.Entry, 0, len(chunks))
	for _, ch := range chunks {
		entry, err := placeOne(ctx, ch, sorted, maxChunksPerPNG, bitsPerChannel, src)
		if err != nil {
			return nil, err
		}
		log.Debugf("placed chunk %d (%d bytes) in %s [%d,%d)", ch.ID, len(ch.Data), entry.PNGFile, entry.StartChannelPosition, entry.EndChannelPosition)
		entries = append(entries, entry)
	}
	return entries, nil
}

func placeOne(ctx context.Context, ch chunk.Chunk, sorted []*Carrier, maxChunksPerPNG int, bitsPerChannel uint8, src rng.Source) (distmap.Entry, error) {
	length := channelLength(len(ch.Data), bitsPerChannel)
	seq := rng.ChannelSequence(uint64(ch.ID))

	for _, c := range sorted {
		if c.usedCnt >= maxChunksPerPNG {
			continue
		}
		start, ok, err := findRange(ctx, c, length, src)
		if err != nil {
			return distmap.Entry{}, err
		}
		if !ok {
			continue
		}
		c.markUsed(start, length)
		c.usedCnt++
		return distmap.Entry{
			ChunkID:              uint32(ch.ID),
			PNGFile:              c.Name,
			StartChannelPosition: uint32(start),
			EndChannelPosition:   uint32(start + length),
			BitsPerChannel:       bitsPerChannel,
			ChannelSequence:      seq,
		}, nil
	}
	return distmap.Entry{}, pverr.New(pverr.InsufficientCapacity, "placement.placeOne",
		fmt.Errorf("no carrier admits chunk %d (%d channels required)", ch.ID, length))
}

// findRange probes up to candidateAttempts random start positions in c,
// weighting the first three quarters of attempts toward low-tone pixel
// starts and the next eighth toward mid-tone ones before falling back to a
// uniform draw over the whole channel space, then falls back to an
// exhaustive linear scan so a carrier with exactly enough free space
// still succeeds deterministically.
func findRange(ctx context.Context, c *Carrier, length int, src rng.Source) (int, bool, error) {
	capacity := len(c.bitmap)
	if length > capacity {
		return 0, false, nil
	}
	maxStart := capacity - length

	lowCutoff := candidateAttempts * 3 / 4
	midCutoff := candidateAttempts * 7 / 8
	for i := 0; i < candidateAttempts; i++ {
		v, err := randomUint32(ctx, src)
		if err != nil {
			return 0, false, err
		}

		var start int
		switch {
		case i < lowCutoff && len(c.lowStarts) > 0:
			start = c.lowStarts[v%uint32(len(c.lowStarts))]
		case i < midCutoff && len(c.midStarts) > 0:
			start = c.midStarts[v%uint32(len(c.midStarts))]
		default:
			start = 0
			if maxStart > 0 {
				start = int(v % uint32(maxStart+1))
			}
		}
		if start > maxStart {
			start = maxStart
		}
		if c.rangeFree(start, length) {
			return start, true, nil
		}
	}
	for start := 0; start <= maxStart; start++ {
		if c.rangeFree(start, length) {
			return start, true, nil
		}
	}
	return 0, false, nil
}

// randomUint32 draws one non-negative pseudo-random value from src.
func randomUint32(ctx context.Context, src rng.Source) (uint32, error) {
	var b [4]byte
	if _, err := src.Read(ctx, b[:]); err != nil {
		return 0, fmt.Errorf("placement.findRange: candidate read: %w", err)
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// channelLength returns ceil(byteLen*8/bitsPerChannel), the number of
// channels needed to carry byteLen bytes at bitsPerChannel bits each.
func channelLength(byteLen int, bitsPerChannel uint8) int {
	bits := byteLen * 8
	k := int(bitsPerChannel)
	return (bits + k - 1) / k
}
