// Package mapio embeds and discovers the distribution map's framed blob in
// a carrier's fixed channel-0 prefix.
package mapio

import (
	"fmt"

	"github.com/slippyex/pixveil/pkg/bitops"
	"github.com/slippyex/pixveil/pkg/distmap"
	"github.com/slippyex/pixveil/pkg/pverr"
	"github.com/slippyex/pixveil/pkg/pximage"
)

// mapChannelSequence is the fixed sequence used for the map prefix,
// regardless of any chunk's deterministic sequence.
var mapChannelSequence = []byte{0, 1, 2} // R, G, B

// PrefixLength returns the number of channels the framed blob (magic +
// u32 size + ciphertext) occupies at bitsPerChannel=2, the quantity
// reserved in the first carrier's bitmap before placement runs.
func PrefixLength(framedBlobLen int) int {
	bits := framedBlobLen * 8
	return (bits + distmap.MapPrefixBits - 1) / distmap.MapPrefixBits
}

// Embed writes framed (MagicBytes || u32 size || ciphertext) into img's
// channel-0 prefix, using the fixed [R,G,B] sequence at bitsPerChannel=2.
func Embed(img *pximage.Carrier, framed []byte) error {
	needed := PrefixLength(len(framed))
	if needed > img.ChannelCapacity() {
		return pverr.New(pverr.InsufficientCapacity, "mapio.Embed",
			fmt.Errorf("carrier has %d channels, map needs %d", img.ChannelCapacity(), needed))
	}
	br := bitops.NewBitReader(framed)
	for i := 0; i < needed; i++ {
		pixelIdx := i / 3
		ch := pximage.Channel(mapChannelSequence[i%3])
		bits, n := br.ReadBits(distmap.MapPrefixBits)
		if n < distmap.MapPrefixBits {
			bits <<= uint(distmap.MapPrefixBits - n)
		}
		current := img.GetPixelChannel(pixelIdx, ch)
		img.SetPixelChannel(pixelIdx, ch, bitops.SetBits(current, bits, distmap.MapPrefixBits))
	}
	return nil
}

// Discover scans img's channel-0 prefix for MagicBytes, and if found reads
// the declared u32 size and the ciphertext that follows, validating size
// against the carrier's capacity before allocating. Returns (nil, false,
// nil) when the magic doesn't match, so callers can move to the next
// carrier in their scan order.
func Discover(img *pximage.Carrier) (framed []byte, found bool, err error) {
	headerChannels := PrefixLength(distmap.HeaderLen())
	if headerChannels > img.ChannelCapacity() {
		return nil, false, nil
	}

	header := readChannels(img, 0, headerChannels, distmap.MapPrefixBits)
	if len(header) < distmap.HeaderLen() {
		return nil, false, nil
	}
	if string(header[:len(distmap.MagicBytes)]) != string(distmap.MagicBytes) {
		return nil, false, nil
	}
	size := uint32(header[len(distmap.MagicBytes)])<<24 |
		uint32(header[len(distmap.MagicBytes)+1])<<16 |
		uint32(header[len(distmap.MagicBytes)+2])<<8 |
		uint32(header[len(distmap.MagicBytes)+3])

	totalLen := distmap.HeaderLen() + int(size)
	totalChannels := PrefixLength(totalLen)
	if totalChannels > img.ChannelCapacity() || size == 0 {
		return nil, false, pverr.New(pverr.MapCorrupt, "mapio.Discover",
			fmt.Errorf("declared map size %d exceeds carrier capacity", size))
	}

	full := readChannels(img, 0, totalChannels, distmap.MapPrefixBits)
	if len(full) < totalLen {
		return nil, false, pverr.New(pverr.MapCorrupt, "mapio.Discover", fmt.Errorf("truncated map blob"))
	}
	return full[:totalLen], true, nil
}

func readChannels(img *pximage.Carrier, startPixelChannelGroup, groups, bitsPerGroup int) []byte {
	bw := bitops.NewBitWriter()
	for i := 0; i < groups; i++ {
		pixelIdx := (startPixelChannelGroup + i) / 3
		ch := pximage.Channel(mapChannelSequence[(startPixelChannelGroup+i)%3])
		raw := img.GetPixelChannel(pixelIdx, ch)
		bw.WriteBits(bitops.GetBits(raw, bitsPerGroup), bitsPerGroup)
	}
	return bw.Bytes()
}
