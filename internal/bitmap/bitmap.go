// This package defines an interface for a simple bitmap structure that has a
// width, height, and can get bits from the bitmap by (x,y) coordinate.
// Canvas is the one-byte-per-pixel implementation that text layout, QR codes
// and decoded images are all drawn into before being rasterised, and
// PackedBitmap is the row-major, 8 pixels per byte structure which the
// printer consumes over the wire.
package bitmap

import (
	"fmt"
	"image"
)

type Bitmap interface {
	Width() int
	Height() int
	GetBit(x int, y int) byte
}

// Bit values follow the 1-bit image convention: a set bit is bare paper and a
// clear bit is ink.
const (
	Black byte = 0
	White byte = 1
)

// A rectangular grid of black/white pixels. The zero value is an empty canvas.
type Canvas struct {
	pixels        []byte
	width, height int
}

// Creates a white canvas. Negative dimensions are treated as zero.
func NewCanvas(width, height int) *Canvas {
	width, height = max(width, 0), max(height, 0)
	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = White
	}
	return &Canvas{pixels, width, height}
}

func (c *Canvas) Width() int {
	return c.width
}

func (c *Canvas) Height() int {
	return c.height
}

func (c *Canvas) GetBit(x int, y int) byte {
	return c.pixels[y*c.width+x]
}

// Sets the pixel at (x, y); anything other than Black is stored as White.
// Coordinates outside the canvas are ignored.
func (c *Canvas) Set(x int, y int, bit byte) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	if bit != Black {
		bit = White
	}
	c.pixels[y*c.width+x] = bit
}

func (c *Canvas) IsEmpty() bool {
	return c.width == 0 || c.height == 0
}

func (c *Canvas) String() string {
	return fmt.Sprintf("Canvas(%d,%d)", c.width, c.height)
}

// Counts the pixels holding the given bit value.
func (c *Canvas) Count(bit byte) int {
	n := 0
	for _, p := range c.pixels {
		if p == bit {
			n++
		}
	}
	return n
}

// Returns the tight bounding box of the black pixels, and false if the canvas
// holds no ink at all.
func (c *Canvas) ContentBounds() (image.Rectangle, bool) {
	minX, minY, maxX, maxY := c.width, c.height, -1, -1
	for y := range c.height {
		for x := range c.width {
			if c.pixels[y*c.width+x] != Black {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Copies the region r into a new canvas. Parts of r lying outside the source
// canvas come out white.
func (c *Canvas) Crop(r image.Rectangle) *Canvas {
	r = r.Canon()
	out := NewCanvas(r.Dx(), r.Dy())
	for y := range out.height {
		sy := r.Min.Y + y
		if sy < 0 || sy >= c.height {
			continue
		}
		for x := range out.width {
			sx := r.Min.X + x
			if sx < 0 || sx >= c.width {
				continue
			}
			out.pixels[y*out.width+x] = c.pixels[sy*c.width+sx]
		}
	}
	return out
}

// Widens the canvas to the given width by adding white columns on the right.
// Content stays anchored at the top-left. A width that is not larger than the
// current one returns an unchanged copy.
func (c *Canvas) Extend(width int) *Canvas {
	return c.Crop(image.Rect(0, 0, max(width, c.width), c.height))
}

func (c *Canvas) Rotate180() *Canvas {
	out := &Canvas{make([]byte, len(c.pixels)), c.width, c.height}
	last := len(c.pixels) - 1
	for i, p := range c.pixels {
		out.pixels[last-i] = p
	}
	return out
}

// Flips every pixel between black and white.
func (c *Canvas) Invert() *Canvas {
	out := &Canvas{make([]byte, len(c.pixels)), c.width, c.height}
	for i, p := range c.pixels {
		out.pixels[i] = p ^ 1
	}
	return out
}
