// Package extract reads chunk bytes back out of carrier channels per a
// distribution-map entry, mirroring pkg/inject's write order exactly. The
// map blob itself is read by pkg/mapio.
package extract

import (
	"github.com/slippyex/pixveil/pkg/bitops"
	"github.com/slippyex/pixveil/pkg/distmap"
	"github.com/slippyex/pixveil/pkg/pximage"
)

// ReadEntry reads entry's channel range back out of img and reassembles
// it into a byte slice truncated to maxBytes (the caller knows the exact
// original chunk length; the final channel group may carry pad bits).
func ReadEntry(img *pximage.Carrier, entry distmap.Entry, maxBytes int) []byte {
	length := int(entry.EndChannelPosition - entry.StartChannelPosition)
	k := int(entry.BitsPerChannel)
	seq := entry.ChannelSequence
	if len(seq) == 0 {
		return nil
	}

	bw := bitops.NewBitWriter()
	totalBits := maxBytes * 8
	written := 0
	for i := 0; i < length && written < totalBits; i++ {
		pos := int(entry.StartChannelPosition) + i
		pixelIdx := pos / 3
		ch := pximage.Channel(seq[pos%len(seq)])

		raw := img.GetPixelChannel(pixelIdx, ch)
		bits := bitops.GetBits(raw, k)

		take := k
		if written+take > totalBits {
			take = totalBits - written
			bits >>= uint(k - take)
		}
		bw.WriteBits(bits, take)
		written += take
	}
	out := bw.Bytes()
	if len(out) > maxBytes {
		out = out[:maxBytes]
	}
	return out
}
