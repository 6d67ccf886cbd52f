// Package pximage adapts PNG files to a flat, indexable RGB channel space
// for LSB embedding, and back. Alpha is never touched: only R, G, and B
// carry payload bits.
package pximage

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Channel identifies one of the three payload-bearing color channels.
type Channel byte

const (
	R Channel = 0
	G Channel = 1
	B Channel = 2
)

// Carrier is a decoded PNG held as a mutable NRGBA raster, the form LSB
// embedding operates on.
type Carrier struct {
	Path string
	Img  *image.NRGBA
}

// Width returns the carrier's pixel width.
func (c *Carrier) Width() int { return c.Img.Bounds().Dx() }

// Height returns the carrier's pixel height.
func (c *Carrier) Height() int { return c.Img.Bounds().Dy() }

// ChannelCapacity returns the number of individually addressable R/G/B
// channel bytes in this carrier (width * height * 3); alpha is excluded.
func (c *Carrier) ChannelCapacity() int { return c.Width() * c.Height() * 3 }

// Load decodes a PNG file into a Carrier, normalizing to NRGBA so channel
// values are non-premultiplied and directly addressable.
func Load(path string) (*Carrier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pximage.Load: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode reads a PNG from r, labeling the resulting Carrier with name for
// diagnostics.
func Decode(r io.Reader, name string) (*Carrier, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("pximage.Decode: %s: %w", name, err)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		b := img.Bounds()
		converted := image.NewNRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				converted.Set(x, y, color.NRGBAModel.Convert(img.At(x, y)))
			}
		}
		nrgba = converted
	}
	return &Carrier{Path: name, Img: nrgba}, nil
}

// Save encodes the carrier back to a PNG file at path.
func (c *Carrier) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pximage.Save: create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, c.Img); err != nil {
		return fmt.Errorf("pximage.Save: encode %s: %w", path, err)
	}
	return nil
}

// PixelXY returns the raster (x,y) of the pixel at flat pixel index idx
// (idx = y*width+x).
func (c *Carrier) PixelXY(idx int) (x, y int) {
	w := c.Width()
	return idx % w, idx / w
}

// GetPixelChannel returns the raw byte value of channel ch at pixel index
// idx.
func (c *Carrier) GetPixelChannel(idx int, ch Channel) byte {
	x, y := c.PixelXY(idx)
	px := c.Img.NRGBAAt(x, y)
	switch ch {
	case R:
		return px.R
	case G:
		return px.G
	default:
		return px.B
	}
}

// SetPixelChannel writes value into channel ch at pixel index idx.
func (c *Carrier) SetPixelChannel(idx int, ch Channel, value byte) {
	x, y := c.PixelXY(idx)
	px := c.Img.NRGBAAt(x, y)
	switch ch {
	case R:
		px.R = value
	case G:
		px.G = value
	case B:
		px.B = value
	}
	c.Img.SetNRGBA(x, y, px)
}

// GetChannel returns the raw byte value at flat channel position pos
// (pos = pixelIdx*3 + int(ch)), where ch follows raster R,G,B order, the
// same fixed [R,G,B] order the distribution-map prefix uses regardless of
// any chunk's deterministic sequence.
func (c *Carrier) GetChannel(pos int) byte {
	return c.GetPixelChannel(pos/3, Channel(pos%3))
}

// SetChannel writes value at flat channel position pos, see GetChannel.
func (c *Carrier) SetChannel(pos int, value byte) {
	c.SetPixelChannel(pos/3, Channel(pos%3), value)
}

// PaintDebugBlock fills an 8x8 block anchored at pixel index idx with a
// solid color, used only by EncodeConfig.DebugOverlay to visualize where
// entries were injected.
func (c *Carrier) PaintDebugBlock(idx int, col color.NRGBA) {
	x0, y0 := c.PixelXY(idx)
	for y := y0; y < y0+8 && y < c.Height(); y++ {
		for x := x0; x < x0+8 && x < c.Width(); x++ {
			c.Img.SetNRGBA(x, y, col)
		}
	}
}
