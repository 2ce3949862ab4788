package layout

import (
	"fmt"

	"github.com/skip2/go-qrcode"
	"tomgalvin.uk/thermalprint/internal/bitmap"
)

// Encodes content as a QR code, scaled up by whole modules to fit within
// width pixels.
func QRCode(content string, width int) (*bitmap.Canvas, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("Couldn't encode QR code:\n%w", err)
	}

	modules := q.Bitmap()
	size := len(modules)
	if size == 0 {
		return bitmap.NewCanvas(0, 0), nil
	}
	scale := max(width/size, 1)

	c := bitmap.NewCanvas(size*scale, size*scale)
	for my, row := range modules {
		for mx, black := range row {
			if !black {
				continue
			}
			for y := my * scale; y < (my+1)*scale; y++ {
				for x := mx * scale; x < (mx+1)*scale; x++ {
					c.Set(x, y, bitmap.Black)
				}
			}
		}
	}
	return c, nil
}
