// This file implements methods to pack bitmap pixel data into
// the bit structure accepted by the printer.

package bitmap

import "fmt"

// a bitmap packed in memory, rows are stride bytes long and each byte holds
// 8 pixels with the leftmost pixel in the most significant bit
type PackedBitmap struct {
	data                  []byte
	width, height, stride int
}

const bitsPerWord = 8

// Number of bytes needed to hold one row of the given pixel width.
func StrideFor(width int) int {
	return (width + bitsPerWord - 1) / bitsPerWord
}

func (b *PackedBitmap) Width() int {
	return b.width
}

func (b *PackedBitmap) Height() int {
	return b.height
}

func (b *PackedBitmap) Stride() int {
	return b.stride
}

func (b *PackedBitmap) Data() []byte {
	return b.data
}

// Gets a single bit from the bitmap at the (x, y) coordinate, returns either 0 or 1.
// If the width is not a multiple of 8 the final byte of a row is left-aligned,
// with the unused low bits left clear.
func (b *PackedBitmap) GetBit(x int, y int) byte {
	index := (y * b.stride) + (x / bitsPerWord)
	return (b.data[index] >> (bitsPerWord - 1 - x%bitsPerWord)) & 1
}

func (b *PackedBitmap) String() string {
	return fmt.Sprintf("PackedBitmap(%d,%d)", b.width, b.height)
}

// Take data from any Bitmap implementation and pack it row-major, most
// significant bit first.
func PackBitmap(b Bitmap) *PackedBitmap {
	width, height, stride := b.Width(), b.Height(), StrideFor(b.Width())
	data := make([]byte, stride*height)

	for y := range height {
		row := data[y*stride : (y+1)*stride]
		for x := range width {
			if b.GetBit(x, y)&1 == 1 {
				row[x/bitsPerWord] |= 0x80 >> (x % bitsPerWord)
			}
		}
	}

	return &PackedBitmap{data, width, height, stride}
}

// Wraps already packed data, the inverse of PackBitmap. The data must hold
// exactly StrideFor(width) * height bytes.
func Unpack(data []byte, width int, height int) (*PackedBitmap, error) {
	stride := StrideFor(width)
	if width < 0 || height < 0 || len(data) != stride*height {
		return nil, fmt.Errorf("Packed data not consistent with provided width and height (got %v bytes, expecting %v*%v=%v)",
			len(data),
			stride,
			height,
			stride*height,
		)
	}
	return &PackedBitmap{data, width, height, stride}, nil
}
