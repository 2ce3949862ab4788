// Package layout turns text into a canvas ready for rasterising: lines are
// greedily word-wrapped to the printable width, drawn black on white and then
// trimmed to their ink.
package layout

import (
	"image"
	"image/draw"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"tomgalvin.uk/thermalprint/internal/bitmap"
)

// Blank rows kept below the last inked row so descenders aren't clipped.
const trimMargin = 10

// Splits text on line breaks the way a reader would see them: \n, \r, \r\n,
// vertical tab, form feed, the ASCII file/group/record separators, NEL and the
// Unicode line and paragraph separators. A trailing break doesn't start an
// extra line.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// Greedy word wrap of a single line. Each word is appended to the current
// line if the result still fits maxWidth, otherwise it starts a new line.
// A word wider than maxWidth on its own is left as an overflowing line.
// A line without words wraps to a single empty line.
func Wrap(text string, face font.Face, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line string
	for _, word := range words {
		if len(line) == 0 {
			line = word
			continue
		}
		testLine := line + " " + word
		if font.MeasureString(face, testLine).Ceil() <= maxWidth {
			line = testLine
		} else {
			lines = append(lines, line)
			line = word
		}
	}
	return append(lines, line)
}

// Splits text into lines and wraps each of them.
func WrapAll(text string, face font.Face, maxWidth int) []string {
	var wrapped []string
	for _, line := range SplitLines(text) {
		wrapped = append(wrapped, Wrap(line, face, maxWidth)...)
	}
	return wrapped
}

// Lays the text out on a canvas of the given width and crops the result to
// the inked area plus a small bottom margin. Text without any ink gives an
// empty canvas.
func Render(text string, face font.Face, width int) *bitmap.Canvas {
	lines := WrapAll(text, face, width)
	if len(lines) == 0 || width <= 0 {
		return bitmap.NewCanvas(0, 0)
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = (metrics.Ascent + metrics.Descent).Ceil()
	}

	// one spare line covers glyphs reaching below the descent
	bounds := image.Rect(0, 0, width, (len(lines)+1)*lineHeight+trimMargin)
	img := image.NewGray(bounds)
	draw.Draw(img, bounds, image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
	}
	for i, line := range lines {
		d.Dot = fixed.Point26_6{X: 0, Y: fixed.I(i*lineHeight) + metrics.Ascent}
		d.DrawString(line)
	}

	canvas := bitmap.FromImage(img)
	content, ok := canvas.ContentBounds()
	if !ok {
		return bitmap.NewCanvas(0, 0)
	}
	content.Max.Y += trimMargin
	return canvas.Crop(content)
}
