// Package tone classifies carrier regions by luminance so the placement
// engine can prefer low-tone (darker) regions first, where LSB changes are
// least perceptible.
package tone

import (
	"path/filepath"
	"sync"

	"github.com/slippyex/pixveil/pkg/pximage"
)

// Tone is a coarse luminance classification.
type Tone int

const (
	Low Tone = iota
	Mid
	High
)

func (t Tone) String() string {
	switch t {
	case Low:
		return "low"
	case Mid:
		return "mid"
	default:
		return "high"
	}
}

// Luminance computes Y = round(0.299R + 0.587G + 0.114B).
func Luminance(r, g, b byte) byte {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return byte(y + 0.5)
}

// Classify buckets a luminance value: low<85, mid<170, else high.
func Classify(y byte) Tone {
	switch {
	case y < 85:
		return Low
	case y < 170:
		return Mid
	default:
		return High
	}
}

// Average computes the carrier's mean Tone by sampling every pixel once.
// The result drives carrier-ordering in the placement engine: carriers are
// sorted ascending by priority (Low < Mid < High) so darker carriers are
// filled first.
func Average(c *pximage.Carrier) Tone {
	w, h := c.Width(), c.Height()
	if w == 0 || h == 0 {
		return High
	}
	var sum int64
	n := int64(w) * int64(h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := c.Img.NRGBAAt(x, y)
			sum += int64(Luminance(px.R, px.G, px.B))
		}
	}
	mean := byte(sum / n)
	return Classify(mean)
}

// Priority maps a Tone to a sort weight: lower sorts first.
func Priority(t Tone) int {
	switch t {
	case Low:
		return 0
	case Mid:
		return 1
	default:
		return 2
	}
}

// PixelTone classifies the pixel at flat pixel index idx.
func PixelTone(c *pximage.Carrier, pixelIdx int) Tone {
	r := c.GetPixelChannel(pixelIdx, pximage.R)
	g := c.GetPixelChannel(pixelIdx, pximage.G)
	b := c.GetPixelChannel(pixelIdx, pximage.B)
	return Classify(Luminance(r, g, b))
}

// Capacity reports a carrier's usable channel capacity per tone bucket:
// three RGB channels per pixel, bucketed by that pixel's tone.
type Capacity struct {
	Low, Mid, High int
}

// Total returns the carrier's overall usable channel count.
func (c Capacity) Total() int { return c.Low + c.Mid + c.High }

// Report computes c's per-tone channel capacity by sampling every pixel
// once.
func Report(c *pximage.Carrier) Capacity {
	w, h := c.Width(), c.Height()
	var rep Capacity
	for idx := 0; idx < w*h; idx++ {
		switch PixelTone(c, idx) {
		case Low:
			rep.Low += 3
		case Mid:
			rep.Mid += 3
		default:
			rep.High += 3
		}
	}
	return rep
}

// cache memoizes Report by the carrier's absolute file path. An encode run never
// mutates a carrier it has already reported on (mutated pixels are written
// to a separate output directory), so a path-keyed entry never goes stale
// within a single run.
var cache sync.Map // map[string]Capacity

// ReportCached is Report, memoized on the absolute form of c.Path so
// repeated capacity queries for the same carrier (e.g. placement
// re-sorting) don't re-walk every pixel.
func ReportCached(c *pximage.Carrier) Capacity {
	key := c.Path
	if abs, err := filepath.Abs(c.Path); err == nil {
		key = abs
	}
	if v, ok := cache.Load(key); ok {
		return v.(Capacity)
	}
	rep := Report(c)
	cache.Store(key, rep)
	return rep
}
