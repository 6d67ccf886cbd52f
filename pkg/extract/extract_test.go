package extract

import (
	"image"
	"testing"

	"github.com/slippyex/pixveil/pkg/distmap"
	"github.com/slippyex/pixveil/pkg/pximage"
)

func blankCarrier(w, h int) *pximage.Carrier {
	return &pximage.Carrier{Path: "c.png", Img: image.NewNRGBA(image.Rect(0, 0, w, h))}
}

func TestReadEntryEmptyChannelSequence(t *testing.T) {
	img := blankCarrier(10, 10)
	entry := distmap.Entry{StartChannelPosition: 0, EndChannelPosition: 10, BitsPerChannel: 2}
	if got := ReadEntry(img, entry, 4); got != nil {
		t.Errorf("expected nil for an entry with no channel sequence, got %v", got)
	}
}

func TestReadEntryTruncatesToMaxBytes(t *testing.T) {
	img := blankCarrier(10, 10)
	for i := 0; i < 10; i++ {
		img.SetPixelChannel(i, pximage.R, 0xFF)
	}
	entry := distmap.Entry{
		StartChannelPosition: 0,
		EndChannelPosition:   30, // far more channels reserved than maxBytes needs
		BitsPerChannel:       8,
		ChannelSequence:      []byte{0, 0, 0},
	}
	got := ReadEntry(img, entry, 2)
	if len(got) != 2 {
		t.Fatalf("ReadEntry with maxBytes=2 returned %d bytes, want 2", len(got))
	}
}
