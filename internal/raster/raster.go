// Package raster converts a canvas into the framed, bit-packed image the
// printer's GS v 0 raster command consumes.
package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"
	"tomgalvin.uk/thermalprint/internal/bitmap"
)

// GS v 0 with normal density
var Opcode = [4]byte{0x1D, 0x76, 0x30, 0x00}

const (
	HeaderSize = len(Opcode) + 4
	// width bytes and height are each sent as a little-endian uint16
	maxHeaderValue = 0xFFFF
)

var (
	ErrOversize     = errors.New("image too large for raster header")
	ErrInvalidWidth = errors.New("target width must be positive")
)

// Returned when the width in bytes or the height of an image can't be
// represented in the 16-bit header fields.
type OversizeError struct {
	WidthBytes, Height int
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("image of %d bytes x %d rows exceeds the %d limit of the raster header",
		e.WidthBytes, e.Height, maxHeaderValue)
}

func (e *OversizeError) Is(target error) bool {
	return target == ErrOversize
}

// A raster image ready to be written: WidthBytes * Height bytes of packed
// rows where a set bit prints a dot.
type Payload struct {
	WidthBytes int
	Height     int
	Data       []byte
}

func (p *Payload) Header() []byte {
	h := make([]byte, HeaderSize)
	copy(h, Opcode[:])
	binary.LittleEndian.PutUint16(h[4:], uint16(p.WidthBytes))
	binary.LittleEndian.PutUint16(h[6:], uint16(p.Height))
	return h
}

// Header followed by the packed rows.
func (p *Payload) Bytes() []byte {
	return append(p.Header(), p.Data...)
}

// Views the packed rows as a bitmap; a set bit is a printed dot.
func (p *Payload) Bitmap() (*bitmap.PackedBitmap, error) {
	return bitmap.Unpack(p.Data, p.WidthBytes*8, p.Height)
}

func (p *Payload) String() string {
	return fmt.Sprintf("Payload(%d bytes x %d rows)", p.WidthBytes, p.Height)
}

// Normalises a canvas for a print head targetWidth pixels wide. The steps run
// in this order:
//   - wider canvases are scaled down proportionally, never up
//   - narrower canvases are padded with white on the right
//   - the canvas is rotated 180 degrees, the head prints it upside down
//   - rows are padded with white to a whole number of bytes
//   - every bit is inverted so ink becomes a set bit
//   - rows are packed 8 pixels per byte, most significant bit first
//
// Dimensions that overflow the 16-bit header are rejected before any of the
// work is done.
func Normalize(c *bitmap.Canvas, targetWidth int) (*Payload, error) {
	if targetWidth <= 0 {
		return nil, ErrInvalidWidth
	}

	widthBytes := bitmap.StrideFor(targetWidth)
	height := c.Height()
	if c.Width() > targetWidth {
		height = scaledHeight(c.Width(), c.Height(), targetWidth)
	}
	if widthBytes > maxHeaderValue || height > maxHeaderValue {
		return nil, &OversizeError{WidthBytes: widthBytes, Height: height}
	}

	img := c
	if img.Width() > targetWidth {
		img = downscale(img, targetWidth, height)
	}
	if img.Width() < targetWidth {
		img = img.Extend(targetWidth)
	}
	img = img.Rotate180()
	if img.Width()%8 != 0 {
		img = img.Extend(widthBytes * 8)
	}

	packed := bitmap.PackBitmap(img.Invert())
	slog.Debug("Normalised canvas for printing",
		"source", c.String(),
		"inkPixels", c.Count(bitmap.Black),
		"widthBytes", packed.Stride(),
		"height", packed.Height(),
	)

	return &Payload{
		WidthBytes: packed.Stride(),
		Height:     packed.Height(),
		Data:       packed.Data(),
	}, nil
}

// Proportional height for a width change, rounded to the nearest row and
// never collapsing a non-empty image to nothing.
func scaledHeight(width int, height int, targetWidth int) int {
	if height == 0 {
		return 0
	}
	return max((height*targetWidth+width/2)/width, 1)
}

// resize image using Catmull Rom scaling, then threshold back to 1 bit
func downscale(c *bitmap.Canvas, width int, height int) *bitmap.Canvas {
	bounds := image.Rect(0, 0, width, height)
	scaled := image.NewGray(bounds)
	draw.CatmullRom.Scale(scaled, bounds, c.Gray(), c.Bounds(), draw.Src, nil)
	return bitmap.FromImage(scaled)
}
