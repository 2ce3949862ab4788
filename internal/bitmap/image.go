package bitmap

import (
	"image"
	"image/color"
)

// Luminance at or above this value is white once thresholded.
const threshold = 0x80

// Converts any image into a canvas with a plain luminance threshold.
// Transparent pixels are composited over white first, so a transparent
// background stays paper coloured.
func FromImage(i image.Image) *Canvas {
	if c, ok := i.(*Canvas); ok {
		return c.Crop(image.Rect(0, 0, c.width, c.height))
	}
	bounds := i.Bounds()
	out := NewCanvas(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if luminance(i.At(x, y)) < threshold {
				out.pixels[(y-bounds.Min.Y)*out.width+(x-bounds.Min.X)] = Black
			}
		}
	}
	return out
}

// 8-bit luminance of c over a white background, using the same weights as
// color.GrayModel.
func luminance(c color.Color) uint8 {
	r, g, b, a := c.RGBA()
	r, g, b = r+0xffff-a, g+0xffff-a, b+0xffff-a
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 24
	return uint8(y)
}

// Renders the canvas as an 8-bit grayscale image, white pixels at 0xff.
func (c *Canvas) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, c.width, c.height))
	for i, p := range c.pixels {
		if p == White {
			g.Pix[i] = 0xff
		}
	}
	return g
}

// Canvas also satisfies image.Image so it can be handed to the x/image
// scalers and encoders directly.
func (c *Canvas) ColorModel() color.Model {
	return color.GrayModel
}

func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.width, c.height)
}

func (c *Canvas) At(x int, y int) color.Color {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return color.White
	}
	if c.pixels[y*c.width+x] == White {
		return color.White
	}
	return color.Black
}
