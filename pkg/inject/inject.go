// Package inject writes chunk bytes into carrier channels per a
// distribution-map entry's channel sequence. The map blob itself is
// written by pkg/mapio.
package inject

import (
	"fmt"
	"image/color"

	"github.com/slippyex/pixveil/pkg/bitops"
	"github.com/slippyex/pixveil/pkg/distmap"
	"github.com/slippyex/pixveil/pkg/pverr"
	"github.com/slippyex/pixveil/pkg/pximage"
)

var (
	debugStartColor = color.NRGBA{R: 255, A: 255}
	debugEndColor   = color.NRGBA{B: 255, A: 255}
)

// WriteEntry embeds data into img's channels starting at
// entry.StartChannelPosition, cycling through entry.ChannelSequence,
// entry.BitsPerChannel bits per channel. Position pos in
// [StartChannelPosition, EndChannelPosition) addresses pixel pos/3, and
// the color written at that slot is ChannelSequence[pos%len(seq)]: the
// flattened RGB-channel stream advances one unit per channel write while
// which physical color that unit maps to cycles through the entry's
// sequence. debug paints an 8x8 diagnostic block at the first and last
// touched pixel when true.
func WriteEntry(img *pximage.Carrier, entry distmap.Entry, data []byte, debug bool) error {
	length := int(entry.EndChannelPosition - entry.StartChannelPosition)
	k := int(entry.BitsPerChannel)
	needed := (len(data)*8 + k - 1) / k
	if needed > length {
		return pverr.New(pverr.IOError, "inject.WriteEntry",
			fmt.Errorf("chunk %d needs %d channels, entry reserves %d", entry.ChunkID, needed, length))
	}
	if len(entry.ChannelSequence) == 0 {
		return pverr.New(pverr.MapCorrupt, "inject.WriteEntry", fmt.Errorf("empty channel sequence"))
	}

	br := bitops.NewBitReader(data)
	seq := entry.ChannelSequence
	firstPixel, lastPixel := -1, -1
	for i := 0; i < length && br.Remaining() > 0; i++ {
		pos := int(entry.StartChannelPosition) + i
		pixelIdx := pos / 3
		ch := pximage.Channel(seq[pos%len(seq)])

		bits, n := br.ReadBits(k)
		if n == 0 {
			break
		}
		if n < k {
			bits <<= uint(k - n)
		}
		current := img.GetPixelChannel(pixelIdx, ch)
		img.SetPixelChannel(pixelIdx, ch, bitops.SetBits(current, bits, k))

		if firstPixel == -1 {
			firstPixel = pixelIdx
		}
		lastPixel = pixelIdx
	}

	if debug {
		if firstPixel >= 0 {
			img.PaintDebugBlock(firstPixel, debugStartColor)
		}
		if lastPixel >= 0 {
			img.PaintDebugBlock(lastPixel, debugEndColor)
		}
	}
	return nil
}
